package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/akinalp/unread/pkg"
)

const (
	// writeWait: tek bir yazma işleminin süresi.
	writeWait = 10 * time.Second

	// pongWait: heartbeat gelmezse bağlantı bu süre sonunda kapanır.
	// İstemci her 30sn'de heartbeat gönderir.
	pongWait = 90 * time.Second

	// refreshTimeout: WS üzerinden istenen manuel yeniden sayım için üst sınır.
	refreshTimeout = 5 * time.Second

	maxMessageSize = 4096
	sendBufferSize = 64
)

// Client, tek bir WebSocket bağlantısını temsil eder.
//
// Her client için iki goroutine çalışır:
// - ReadPump: client'tan gelen mesajları okur (heartbeat, unread_refresh)
// - WritePump: send kanalındaki mesajları WebSocket'e yazar
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	unread UnreadTracker
	log    *zap.Logger

	// send: Hub'ın bu client'a gönderdiği serialize edilmiş event'ler.
	// Sadece Hub kapatır.
	send chan []byte
}

// ReadPump, client'tan gelen mesajları okur. Bağlantı kapanana kadar bloklar.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn("failed to set read deadline", zap.Error(err))
		return
	}

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Info("unexpected close", zap.Error(err))
			}
			return
		}

		var event Event
		if err := json.Unmarshal(rawMessage, &event); err != nil {
			c.log.Debug("invalid message", zap.Error(err))
			continue
		}

		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeat:
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.Warn("failed to set read deadline", zap.Error(err))
			return
		}
		c.hub.SendToClient(c, Event{Op: OpHeartbeatAck})

	case OpUnreadRefresh:
		c.handleUnreadRefresh()

	default:
		c.log.Debug("unknown op", zap.String("op", event.Op))
	}
}

// handleUnreadRefresh, senkron yeniden sayım yapar ve sonucu sadece bu
// bağlantıya gönderir. Rate limit aşılırsa istek sessizce yoksayılır.
func (c *Client) handleUnreadRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	count, err := c.unread.Refresh(ctx, c.userID)
	if errors.Is(err, pkg.ErrTooManyRequests) {
		c.log.Debug("unread refresh rate limited")
		return
	}
	if err != nil {
		c.log.Warn("unread refresh failed", zap.Error(err))
		return
	}

	c.hub.SendToClient(c, Event{Op: OpUnreadUpdate, Data: count})
}

// WritePump, send kanalındaki mesajları WebSocket'e yazar.
// Kanal kapanınca close frame gönderip çıkar.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.writeMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
