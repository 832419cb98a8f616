package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/akinalp/unread/database"
	"github.com/akinalp/unread/models"
)

// sqliteMessageRepo, MessageRepository interface'inin SQLite implementasyonu.
type sqliteMessageRepo struct {
	db database.TxQuerier
}

// NewSQLiteMessageRepo, constructor: interface döner.
func NewSQLiteMessageRepo(db database.TxQuerier) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

func (r *sqliteMessageRepo) CreateDirect(ctx context.Context, msg *models.DirectMessage) error {
	query := `
		INSERT INTO direct_messages (id, sender_id, receiver_id, content, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		msg.ID, msg.SenderID, msg.ReceiverID, msg.Content, boolToInt(msg.IsRead), msg.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to create direct message: %w", err)
	}
	return nil
}

// MarkDirectRead, senderID'den receiverID'ye gelen tüm okunmamış DM'leri okundu yapar.
// Etkilenen satır sayısını döner: 0 ise feed'e update yayınlamaya gerek yoktur.
func (r *sqliteMessageRepo) MarkDirectRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	query := `
		UPDATE direct_messages SET is_read = 1
		WHERE receiver_id = ? AND sender_id = ? AND is_read = 0`

	result, err := r.db.ExecContext(ctx, query, receiverID, senderID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark direct messages read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected, nil
}

func (r *sqliteMessageRepo) CountUnreadDirect(ctx context.Context, receiverID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM direct_messages WHERE receiver_id = ? AND is_read = 0`,
		receiverID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread direct messages: %w", err)
	}
	return count, nil
}

func (r *sqliteMessageRepo) CreateGroupMessage(ctx context.Context, msg *models.GroupMessage) error {
	query := `
		INSERT INTO group_messages (id, group_id, sender_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		msg.ID, msg.GroupID, msg.SenderID, msg.Content, msg.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to create group message: %w", err)
	}
	return nil
}

func (r *sqliteMessageRepo) CountGroupMessagesSince(ctx context.Context, groupID string, since time.Time, excludeSenderID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM group_messages
		WHERE group_id = ? AND created_at > ? AND sender_id != ?`,
		groupID, since.UnixNano(), excludeSenderID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count group messages: %w", err)
	}
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
