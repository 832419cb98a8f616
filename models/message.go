package models

import "time"

// GroupMessage, bir gruba gönderilmiş mesaj: tüm üyeler görür.
// Okundu bilgisi mesaj başına değil, kullanıcının grup read marker'ı ile tutulur.
type GroupMessage struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
