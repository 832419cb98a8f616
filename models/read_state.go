package models

import "time"

// ReadMarker, bir kullanıcının bir grubu en son ne zaman görüntülediğini tutar.
//
// Watermark pattern: her mesajı tek tek "okundu" işaretlemek yerine
// "bu ana kadar okudum" bilgisi tutulur. Okunmamış sayısı = bu andan
// KESİNLİKLE sonra oluşturulan (ve kullanıcının kendisinin göndermediği) mesajlar.
type ReadMarker struct {
	GroupID    string    `json:"group_id"`
	UserID     string    `json:"user_id"`
	LastReadAt time.Time `json:"last_read_at"`
}

// UnreadCount, GET /api/unread yanıtı ve WS unread_update payload'ı.
type UnreadCount struct {
	Count     int       `json:"count"`
	Seq       uint64    `json:"seq"`
	Path      string    `json:"path,omitempty"` // "fast" veya "fallback"
	UpdatedAt time.Time `json:"updated_at"`
}
