package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akinalp/unread/database"
)

// sqliteReadStateRepo, ReadMarkerRepository interface'inin SQLite implementasyonu.
type sqliteReadStateRepo struct {
	db database.TxQuerier
}

// NewSQLiteReadStateRepo, constructor: interface döner.
func NewSQLiteReadStateRepo(db database.TxQuerier) ReadMarkerRepository {
	return &sqliteReadStateRepo{db: db}
}

func (r *sqliteReadStateRepo) Get(ctx context.Context, groupID, userID string) (time.Time, bool, error) {
	var ns int64
	err := r.db.QueryRowContext(ctx,
		`SELECT last_read_at FROM group_reads WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	).Scan(&ns)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get read marker: %w", err)
	}
	return fromUnixNano(ns), true, nil
}

// Upsert, okuma işaretçisini günceller (yoksa oluşturur).
//
// PRIMARY KEY (group_id, user_id) çakışırsa MAX ile güncellenir:
// geç gelen eski bir istek işaretçiyi geri çekemez.
func (r *sqliteReadStateRepo) Upsert(ctx context.Context, groupID, userID string, at time.Time) error {
	query := `
		INSERT INTO group_reads (group_id, user_id, last_read_at)
		VALUES (?, ?, ?)
		ON CONFLICT(group_id, user_id)
		DO UPDATE SET last_read_at = MAX(last_read_at, excluded.last_read_at)`

	_, err := r.db.ExecContext(ctx, query, groupID, userID, at.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to upsert read marker: %w", err)
	}
	return nil
}
