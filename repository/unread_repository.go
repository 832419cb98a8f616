package repository

import "context"

// UnreadRepository, okunmamış toplamını tek sorguda hesaplayan aggregate (fast path).
//
// Fallback yoluyla aynı sonucu vermek zorundadır:
//   - okunmamış DM'ler (receiver = user, is_read = 0)
//   - + üyesi olunan ve read marker'ı bulunan gruplarda marker'dan sonra,
//     başkalarının gönderdiği mesajlar
//   - marker'ı olmayan gruplar 0 katkı yapar
type UnreadRepository interface {
	TotalUnread(ctx context.Context, userID string) (int, error)
}
