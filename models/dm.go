package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// maxContentLength, mesaj içeriğinin rune cinsinden üst sınırı.
const maxContentLength = 2000

// DirectMessage, iki kullanıcı arasındaki tek bir özel mesaj.
// IsRead alıcının mesajı okuyup okumadığını gösterir: unread sayımına girer.
type DirectMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// SendMessageRequest, DM veya grup mesajı gönderme isteği.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// Validate, içeriği kırpar ve uzunluğunu kontrol eder.
func (r *SendMessageRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	contentLen := utf8.RuneCountInString(r.Content)

	if contentLen < 1 {
		return fmt.Errorf("message content is required")
	}
	if contentLen > maxContentLength {
		return fmt.Errorf("message content must be at most %d characters", maxContentLength)
	}
	return nil
}
