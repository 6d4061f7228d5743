package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ggonzalesd/UniTable/shared/models"
)

const userColumns = `u.id, u.names, u.surnames, u.email, u.password_hash, u.program, u.user_type,
	u.is_premium, u.coins, u.completed_activities, u.created_at, u.updated_at`

// UserWriteRepository handles users and their follow edges. It runs on
// whatever transaction it was built with.
type UserWriteRepository struct {
	q querier
}

func NewUserWriteRepository(q querier) *UserWriteRepository {
	return &UserWriteRepository{q: q}
}

func (r *UserWriteRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, names, surnames, email, password_hash, program, user_type,
			is_premium, coins, completed_activities, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.q.ExecContext(ctx, query,
		user.ID, user.Names, user.Surnames, user.Email, user.PasswordHash, user.Program, user.UserType,
		user.IsPremium, user.Coins, user.CompletedActivities, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserWriteRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET names = $2, surnames = $3, email = $4, password_hash = $5, program = $6, user_type = $7,
			is_premium = $8, coins = $9, completed_activities = $10, updated_at = $11
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query,
		user.ID, user.Names, user.Surnames, user.Email, user.PasswordHash, user.Program, user.UserType,
		user.IsPremium, user.Coins, user.CompletedActivities, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return checkAffected(result)
}

func (r *UserWriteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	return r.getOne(ctx, query, id)
}

func (r *UserWriteRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1`
	return r.getOne(ctx, query, email)
}

func (r *UserWriteRepository) FindByName(ctx context.Context, names, surnames string) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u
		WHERE u.names = $1 AND u.surnames = $2
		ORDER BY u.created_at, u.id`
	return r.getMany(ctx, query, names, surnames)
}

func (r *UserWriteRepository) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u ORDER BY u.created_at, u.id`
	return r.getMany(ctx, query)
}

func (r *UserWriteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return checkAffected(result)
}

func (r *UserWriteRepository) ListContacts(ctx context.Context, userID string) ([]models.User, error) {
	query := `SELECT ` + userColumns + `
		FROM user_contacts c
		JOIN users u ON u.id = c.followed_id
		WHERE c.follower_id = $1
		ORDER BY c.created_at, u.id`
	return r.getMany(ctx, query, userID)
}

func (r *UserWriteRepository) AddContact(ctx context.Context, followerID, followedID string) error {
	query := `
		INSERT INTO user_contacts (follower_id, followed_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	if _, err := r.q.ExecContext(ctx, query, followerID, followedID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to add contact: %w", err)
	}
	return nil
}

func (r *UserWriteRepository) RemoveContact(ctx context.Context, followerID, followedID string) error {
	query := `DELETE FROM user_contacts WHERE follower_id = $1 AND followed_id = $2`
	if _, err := r.q.ExecContext(ctx, query, followerID, followedID); err != nil {
		return fmt.Errorf("failed to remove contact: %w", err)
	}
	return nil
}

func (r *UserWriteRepository) DeleteContacts(ctx context.Context, userID string) error {
	query := `DELETE FROM user_contacts WHERE follower_id = $1 OR followed_id = $1`
	if _, err := r.q.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete contacts: %w", err)
	}
	return nil
}

func (r *UserWriteRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	user, err := scanUser(r.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *UserWriteRepository) getMany(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return collectUsers(rows)
}

func collectUsers(rows *sql.Rows) ([]models.User, error) {
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func scanUser(row scanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Names, &user.Surnames, &user.Email, &user.PasswordHash, &user.Program, &user.UserType,
		&user.IsPremium, &user.Coins, &user.CompletedActivities, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
