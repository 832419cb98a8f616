package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Broadcaster, kullanıcıya event göndermek için gereken tek yetenek.
// unread session'larının OnChange callback'i bunu kullanır.
type Broadcaster interface {
	BroadcastToUser(userID string, event Event)
}

// Hub, tüm aktif WebSocket bağlantılarını yöneten merkezi yapı.
//
// Bir kullanıcının birden fazla bağlantısı olabilir (birden fazla sekme/cihaz),
// bu yüzden clients map'i userID → client set şeklindedir.
//
// register/unregister kanalları client ekleme/çıkarmayı Run goroutine'inde
// sıralar; broadcast'ler RLock ile doğrudan yapılır.
type Hub struct {
	clients map[string]map[*Client]bool
	mu      sync.RWMutex
	closed  bool

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	seq atomic.Int64
	log *zap.Logger
}

// NewHub, yeni bir Hub oluşturur. Run ayrı bir goroutine'de çağrılmalıdır.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run, register/unregister isteklerini Shutdown çağrılana kadar işler.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

// Register, client'ı Hub'a ekler. Hub kapalıysa false döner.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister, client'ı Hub'dan çıkarır. Hub kapandıysa no-op.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(client.send)
		return
	}

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	h.log.Info("client connected",
		zap.String("user_id", client.userID),
		zap.Int("connections", len(h.clients[client.userID])))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}

	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.clients, client.userID)
		h.log.Info("user fully disconnected", zap.String("user_id", client.userID))
		return
	}
	h.log.Info("client disconnected",
		zap.String("user_id", client.userID),
		zap.Int("remaining", len(clients)))
}

// BroadcastToUser, belirli bir kullanıcının tüm bağlantılarına event gönderir.
func (h *Hub) BroadcastToUser(userID string, event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to marshal user event", zap.String("op", event.Op), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		h.enqueueLocked(client, data)
	}
}

// SendToClient, tek bir bağlantıya event gönderir. Client artık kayıtlı
// değilse false döner.
func (h *Hub) SendToClient(client *Client, event Event) bool {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to marshal client event", zap.String("op", event.Op), zap.Error(err))
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[client.userID][client] {
		return false
	}
	return h.enqueueLocked(client, data)
}

// enqueueLocked: buffer doluysa client yavaş demektir: bağlantı düşürülür.
// RLock tutulurken unregister'a bloklayarak gönderilemez, goroutine ile gönderilir.
func (h *Hub) enqueueLocked(client *Client, data []byte) bool {
	select {
	case client.send <- data:
		return true
	default:
		h.log.Warn("send buffer full, dropping connection", zap.String("user_id", client.userID))
		go h.Unregister(client)
		return false
	}
}

// ConnectionCount, kullanıcının açık bağlantı sayısı.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// GetOnlineUserIDs, en az bir bağlantısı olan kullanıcılar.
func (h *Hub) GetOnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	return ids
}

// Shutdown, Run döngüsünü durdurur ve tüm bağlantıların send kanallarını
// kapatır: WritePump'lar close frame gönderip çıkar. Idempotent.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()

		h.closed = true
		for _, clients := range h.clients {
			for client := range clients {
				close(client.send)
			}
		}
		h.clients = make(map[string]map[*Client]bool)
		h.log.Info("hub shut down, all connections closed")
	})
}
