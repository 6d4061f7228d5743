package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ggonzalesd/UniTable/shared/models"
)

// Rewards, activities and messages are owned by exactly one user and are
// only ever read through that owner.

type SQLRewardRepository struct {
	q querier
}

func NewRewardRepository(q querier) *SQLRewardRepository {
	return &SQLRewardRepository{q: q}
}

func (r *SQLRewardRepository) Create(ctx context.Context, reward *models.Reward) error {
	query := `
		INSERT INTO rewards (id, user_id, name, description, coins, granted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q.ExecContext(ctx, query,
		reward.ID, reward.UserID, reward.Name, nullString(reward.Description), reward.Coins, reward.GrantedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reward: %w", err)
	}
	return nil
}

func (r *SQLRewardRepository) ListByUser(ctx context.Context, userID string) ([]models.Reward, error) {
	query := `
		SELECT id, user_id, name, description, coins, granted_at
		FROM rewards
		WHERE user_id = $1
		ORDER BY granted_at, id
	`
	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer rows.Close()

	rewards := []models.Reward{}
	for rows.Next() {
		var reward models.Reward
		var description sql.NullString
		if err := rows.Scan(&reward.ID, &reward.UserID, &reward.Name, &description, &reward.Coins, &reward.GrantedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		reward.Description = description.String
		rewards = append(rewards, reward)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rewards: %w", err)
	}
	return rewards, nil
}

func (r *SQLRewardRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM rewards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reward: %w", err)
	}
	return checkAffected(result)
}

type SQLActivityRepository struct {
	q querier
}

func NewActivityRepository(q querier) *SQLActivityRepository {
	return &SQLActivityRepository{q: q}
}

func (r *SQLActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	query := `
		INSERT INTO activities (id, user_id, title, description, completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q.ExecContext(ctx, query,
		activity.ID, activity.UserID, activity.Title, nullString(activity.Description), activity.Completed, activity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

func (r *SQLActivityRepository) ListByUser(ctx context.Context, userID string) ([]models.Activity, error) {
	query := `
		SELECT id, user_id, title, description, completed, created_at
		FROM activities
		WHERE user_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var activity models.Activity
		var description sql.NullString
		if err := rows.Scan(&activity.ID, &activity.UserID, &activity.Title, &description, &activity.Completed, &activity.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activity.Description = description.String
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}
	return activities, nil
}

func (r *SQLActivityRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return checkAffected(result)
}

type SQLMessageRepository struct {
	q querier
}

func NewMessageRepository(q querier) *SQLMessageRepository {
	return &SQLMessageRepository{q: q}
}

func (r *SQLMessageRepository) Create(ctx context.Context, message *models.Message) error {
	query := `
		INSERT INTO messages (id, user_id, group_id, content, sent_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.q.ExecContext(ctx, query,
		message.ID, message.UserID, nullString(message.GroupID), message.Content, message.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *SQLMessageRepository) ListByUser(ctx context.Context, userID string) ([]models.Message, error) {
	query := `
		SELECT id, user_id, group_id, content, sent_at
		FROM messages
		WHERE user_id = $1
		ORDER BY sent_at, id
	`
	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var message models.Message
		var groupID sql.NullString
		if err := rows.Scan(&message.ID, &message.UserID, &groupID, &message.Content, &message.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		message.GroupID = groupID.String
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

func (r *SQLMessageRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return checkAffected(result)
}
