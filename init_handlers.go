// Package main — Handler katmanı başlatma.
//
// Handler'lar "thin"dir — sadece HTTP parse + service call + response write.
package main

import (
	"net/http"
	"slices"

	"go.uber.org/zap"

	"github.com/akinalp/unread/config"
	"github.com/akinalp/unread/feed"
	"github.com/akinalp/unread/handlers"
	"github.com/akinalp/unread/ws"
)

// Handlers, tüm handler instance'larını tutan container struct.
type Handlers struct {
	Health    *handlers.HealthHandler
	Unread    *handlers.UnreadHandler
	DM        *handlers.DMHandler
	Group     *handlers.GroupHandler
	ReadState *handlers.ReadStateHandler
	WS        *ws.Handler
}

func initHandlers(
	svcs *Services,
	hub *ws.Hub,
	stack *UnreadStack,
	broker *feed.Broker,
	cfg *config.Config,
	log *zap.Logger,
) *Handlers {
	return &Handlers{
		Health:    handlers.NewHealthHandler(hub, stack.Manager, broker),
		Unread:    handlers.NewUnreadHandler(svcs.Unread),
		DM:        handlers.NewDMHandler(svcs.Message),
		Group:     handlers.NewGroupHandler(svcs.Group, svcs.Message),
		ReadState: handlers.NewReadStateHandler(svcs.ReadState),
		WS:        ws.NewHandler(hub, svcs.Token, svcs.Unread, originChecker(cfg.CORS.AllowedOrigins), log),
	}
}

// originChecker, WebSocket upgrade'inde CORS listesini uygular.
// Origin header'ı olmayan (tarayıcı dışı) istemcilere izin verilir.
func originChecker(allowed []string) func(r *http.Request) bool {
	if slices.Contains(allowed, "*") {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
