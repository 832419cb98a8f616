package repository

import (
	"context"
	"fmt"

	"github.com/akinalp/unread/database"
)

type sqliteUnreadRepo struct {
	db database.TxQuerier
}

// NewSQLiteUnreadRepo, constructor: interface döner.
func NewSQLiteUnreadRepo(db database.TxQuerier) UnreadRepository {
	return &sqliteUnreadRepo{db: db}
}

// TotalUnread, DM ve grup okunmamışlarını tek round-trip'te toplar.
//
// group_members JOIN'i üyelikten çıkılan grupların eski marker'larının
// sayıma girmesini engeller.
func (r *sqliteUnreadRepo) TotalUnread(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM direct_messages
			 WHERE receiver_id = ? AND is_read = 0)
			+
			(SELECT COUNT(*) FROM group_messages m
			 INNER JOIN group_members gm ON gm.group_id = m.group_id AND gm.user_id = ?
			 INNER JOIN group_reads gr ON gr.group_id = m.group_id AND gr.user_id = ?
			 WHERE m.sender_id != ? AND m.created_at > gr.last_read_at)`

	var total int
	if err := r.db.QueryRowContext(ctx, query, userID, userID, userID, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to compute total unread: %w", err)
	}
	return total, nil
}
