// Package ws, WebSocket bağlantı yönetimi ve okunmamış sayısının canlı
// olarak istemcilere iletilmesini sağlar.
//
// Mimari:
// - Hub: Tüm bağlantıları kullanıcı bazında tutan merkezi yapı
// - Client: Her WebSocket bağlantısını temsil eder
// - Event: Client-server arası iletilen mesaj formatı
//
// Event akışı:
// 1. Kullanıcı bağlanır → unread session başlar (ilk bağlantıysa) → "ready"
// 2. Bir mesaj/üyelik/okuma değişikliği session'ı yeniden saydırır
// 3. Sayı değişirse Hub.BroadcastToUser ile "unread_update" gönderilir
// 4. Son bağlantı kapanınca session kapanır ve sayı 0'a döner
package ws

import "github.com/akinalp/unread/models"

// Event, WebSocket üzerinden iletilen bir mesajı temsil eder.
//
// Op (operation): Event türü: "unread_update", "heartbeat" vb.
// Data: Event'e özgü payload.
// Seq: Her outbound event'e verilen artan sayı: istemci eksik event tespit edebilir.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → Server operasyonları
const (
	OpHeartbeat     = "heartbeat"      // "hâlâ bağlıyım" sinyali
	OpUnreadRefresh = "unread_refresh" // manuel yeniden sayım isteği (rate limit'li)
)

// Server → Client operasyonları
const (
	OpReady        = "ready"         // bağlantı kurulunca ilk gönderilen: başlangıç sayısı
	OpHeartbeatAck = "heartbeat_ack" // heartbeat'e yanıt
	OpUnreadUpdate = "unread_update" // okunmamış sayısı değişti
)

// ReadyData, "ready" event'inin payload'ı.
type ReadyData struct {
	UserID string             `json:"user_id"`
	Unread models.UnreadCount `json:"unread"`
}
