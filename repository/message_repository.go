package repository

import (
	"context"
	"time"

	"github.com/akinalp/unread/models"
)

// MessageRepository, DM ve grup mesajları için veritabanı işlemleri.
//
// Sayım metodları unread aggregator'ın fallback yolu tarafından kullanılır:
//   - CountUnreadDirect: alıcısı userID olan, okunmamış DM sayısı (tek sorgu)
//   - CountGroupMessagesSince: bir grupta since'ten KESİNLİKLE sonra, excludeSenderID
//     dışındaki kullanıcıların gönderdiği mesaj sayısı
type MessageRepository interface {
	CreateDirect(ctx context.Context, msg *models.DirectMessage) error
	MarkDirectRead(ctx context.Context, receiverID, senderID string) (int64, error)
	CountUnreadDirect(ctx context.Context, receiverID string) (int, error)

	CreateGroupMessage(ctx context.Context, msg *models.GroupMessage) error
	CountGroupMessagesSince(ctx context.Context, groupID string, since time.Time, excludeSenderID string) (int, error)
}
