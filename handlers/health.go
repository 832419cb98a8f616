package handlers

import (
	"net/http"

	"github.com/akinalp/unread/pkg"
)

// PresenceReader, WebSocket Hub'ın online kullanıcı listesi (ws.Hub karşılar).
type PresenceReader interface {
	GetOnlineUserIDs() []string
}

// Sizer, eleman sayısını veren bileşen (unread.Manager, feed.Broker).
type Sizer interface {
	Len() int
}

// HealthHandler, servis durumunu ve canlı sayaçları döner.
type HealthHandler struct {
	presence PresenceReader
	sessions Sizer
	feed     Sizer
}

// NewHealthHandler, constructor.
func NewHealthHandler(presence PresenceReader, sessions, feed Sizer) *HealthHandler {
	return &HealthHandler{presence: presence, sessions: sessions, feed: feed}
}

// healthResponse, GET /api/health yanıtı.
type healthResponse struct {
	Status            string `json:"status"`
	Service           string `json:"service"`
	OnlineUsers       int    `json:"online_users"`
	UnreadSessions    int    `json:"unread_sessions"`
	FeedSubscriptions int    `json:"feed_subscriptions"`
}

// Get godoc
// GET /api/health
// Auth gerektirmez.
//
// Response: { "success": true, "data": { "status": "ok", "online_users": 3, ... } }
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	pkg.JSON(w, http.StatusOK, healthResponse{
		Status:            "ok",
		Service:           "unread",
		OnlineUsers:       len(h.presence.GetOnlineUserIDs()),
		UnreadSessions:    h.sessions.Len(),
		FeedSubscriptions: h.feed.Len(),
	})
}
