package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akinalp/unread/database"
	"github.com/akinalp/unread/models"
	"github.com/akinalp/unread/pkg"
)

type sqliteGroupRepo struct {
	db database.TxQuerier
}

// NewSQLiteGroupRepo, constructor: interface döner.
// Transaction içinde kullanmak için *sql.Tx geçilebilir.
func NewSQLiteGroupRepo(db database.TxQuerier) GroupRepository {
	return &sqliteGroupRepo{db: db}
}

func (r *sqliteGroupRepo) Create(ctx context.Context, group *models.Group) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO groups (id, name, created_by, created_at) VALUES (?, ?, ?, ?)`,
		group.ID, group.Name, group.CreatedBy, group.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

func (r *sqliteGroupRepo) GetByID(ctx context.Context, id string) (*models.Group, error) {
	var (
		g         models.Group
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_by, created_at FROM groups WHERE id = ?`, id,
	).Scan(&g.ID, &g.Name, &g.CreatedBy, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: group", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	g.CreatedAt = fromUnixNano(createdAt)
	return &g, nil
}

// AddMember, kullanıcıyı gruba ekler. Zaten üyeyse pkg.ErrAlreadyExists döner.
func (r *sqliteGroupRepo) AddMember(ctx context.Context, groupID, userID string, joinedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)
		ON CONFLICT(group_id, user_id) DO NOTHING`,
		groupID, userID, joinedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: already a member", pkg.ErrAlreadyExists)
	}
	return nil
}

// RemoveMember, üyeliği siler. Üye değilse pkg.ErrNotFound döner.
func (r *sqliteGroupRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove group member: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: membership", pkg.ErrNotFound)
	}
	return nil
}

func (r *sqliteGroupRepo) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?)`,
		groupID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check group membership: %w", err)
	}
	return exists == 1, nil
}

func (r *sqliteGroupRepo) ListUserGroupIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT group_id FROM group_members WHERE user_id = ? ORDER BY joined_at ASC, group_id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user groups: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group rows: %w", err)
	}
	return ids, nil
}

func (r *sqliteGroupRepo) ListUserGroups(ctx context.Context, userID string) ([]models.Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.created_by, g.created_at
		FROM groups g
		INNER JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = ?
		ORDER BY gm.joined_at ASC, g.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user groups: %w", err)
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		var (
			g         models.Group
			createdAt int64
		)
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", err)
		}
		g.CreatedAt = fromUnixNano(createdAt)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group rows: %w", err)
	}
	return groups, nil
}

func fromUnixNano(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}
