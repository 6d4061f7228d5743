package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ggonzalesd/UniTable/shared/models"
)

const groupColumns = `g.id, g.name, g.description, g.course, g.created_at`

// SQLGroupRepository handles study groups and the group_members join relation.
type SQLGroupRepository struct {
	q querier
}

func NewGroupRepository(q querier) *SQLGroupRepository {
	return &SQLGroupRepository{q: q}
}

func (r *SQLGroupRepository) Create(ctx context.Context, group *models.Group) error {
	query := `
		INSERT INTO study_groups (id, name, description, course, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.q.ExecContext(ctx, query,
		group.ID, group.Name, nullString(group.Description), nullString(group.Course), group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

func (r *SQLGroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM study_groups g WHERE g.id = $1`
	group, err := scanGroup(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

func (r *SQLGroupRepository) List(ctx context.Context) ([]models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM study_groups g ORDER BY g.created_at, g.id`
	return r.getMany(ctx, query)
}

func (r *SQLGroupRepository) ListByUser(ctx context.Context, userID string) ([]models.Group, error) {
	query := `SELECT ` + groupColumns + `
		FROM group_members m
		JOIN study_groups g ON g.id = m.group_id
		WHERE m.user_id = $1
		ORDER BY m.joined_at, g.id`
	return r.getMany(ctx, query, userID)
}

func (r *SQLGroupRepository) ListMembers(ctx context.Context, groupID string) ([]models.User, error) {
	query := `SELECT ` + userColumns + `
		FROM group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.joined_at, u.id`
	rows, err := r.q.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	return collectUsers(rows)
}

func (r *SQLGroupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	query := `SELECT COUNT(*) FROM group_members WHERE group_id = $1 AND user_id = $2`
	var count int
	if err := r.q.QueryRowContext(ctx, query, groupID, userID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

func (r *SQLGroupRepository) AddMember(ctx context.Context, groupID, userID string) error {
	query := `
		INSERT INTO group_members (group_id, user_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	if _, err := r.q.ExecContext(ctx, query, groupID, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

func (r *SQLGroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	query := `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`
	if _, err := r.q.ExecContext(ctx, query, groupID, userID); err != nil {
		return fmt.Errorf("failed to remove group member: %w", err)
	}
	return nil
}

func (r *SQLGroupRepository) DeleteMemberships(ctx context.Context, userID string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM group_members WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete memberships: %w", err)
	}
	return nil
}

func (r *SQLGroupRepository) getMany(ctx context.Context, query string, args ...any) ([]models.Group, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, *group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

func scanGroup(row scanner) (*models.Group, error) {
	var group models.Group
	var description, course sql.NullString
	if err := row.Scan(&group.ID, &group.Name, &description, &course, &group.CreatedAt); err != nil {
		return nil, err
	}
	group.Description = description.String
	group.Course = course.String
	return &group, nil
}
