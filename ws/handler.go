package ws

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/akinalp/unread/models"
)

// TokenValidator, WebSocket handler'ın JWT doğrulaması için kullandığı interface.
// ws → services import döngüsünü önlemek için burada tanımlıdır.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// UnreadTracker, bağlantı yaşam döngüsünü unread session'ına bağlar.
// services.UnreadService bunu karşılar.
type UnreadTracker interface {
	Connect(ctx context.Context, userID string) (models.UnreadCount, error)
	Disconnect(userID string)
	Refresh(ctx context.Context, userID string) (models.UnreadCount, error)
}

// Handler, WebSocket bağlantı isteklerini işleyen HTTP handler'ı.
type Handler struct {
	hub            *Hub
	tokenValidator TokenValidator
	unread         UnreadTracker
	upgrader       websocket.Upgrader
	log            *zap.Logger
}

// NewHandler, yeni bir WebSocket handler oluşturur.
// checkOrigin nil ise tüm origin'lere izin verilir.
func NewHandler(hub *Hub, tokenValidator TokenValidator, unread UnreadTracker, checkOrigin func(r *http.Request) bool, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Handler{
		hub:            hub,
		tokenValidator: tokenValidator,
		unread:         unread,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log: log,
	}
}

// HandleConnection, HTTP bağlantısını WebSocket'e yükseltir ve client'ı Hub'a kaydeder.
//
// Tarayıcı WebSocket'te header gönderemediği için token query parameter'dadır:
//
//	ws://server/ws?token=JWT_TOKEN
//
// Flow:
// 1. Token'ı doğrula
// 2. HTTP → WebSocket upgrade
// 3. Client'ı Hub'a kaydet, WritePump'ı başlat
// 4. Unread session'a bağlan (ilk bağlantıysa session başlar), "ready" gönder
// 5. ReadPump bağlantı kapanana kadar bloklar; sonra session bırakılır
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenValidator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.String("user_id", claims.UserID), zap.Error(err))
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		userID: claims.UserID,
		unread: h.unread,
		log:    h.log.With(zap.String("user_id", claims.UserID)),
		send:   make(chan []byte, sendBufferSize),
	}

	if !h.hub.Register(client) {
		conn.Close()
		return
	}
	go client.WritePump()

	count, err := h.unread.Connect(r.Context(), claims.UserID)
	if err != nil {
		// fail-soft: bağlantı açık kalır, sayı 0 gönderilir
		client.log.Warn("failed to start unread session", zap.Error(err))
	} else {
		defer h.unread.Disconnect(claims.UserID)
	}

	h.hub.SendToClient(client, Event{
		Op:   OpReady,
		Data: ReadyData{UserID: claims.UserID, Unread: count},
	})

	client.ReadPump()
}
