// Package main — HTTP route registration.
//
// initRoutes, tüm API endpoint'lerini mux'a bağlar.
package main

import (
	"net/http"

	"github.com/akinalp/unread/middleware"
	"github.com/akinalp/unread/services"
)

// initRoutes, middleware chain'i kurar ve tüm endpoint'leri mux'a bağlar.
func initRoutes(mux *http.ServeMux, h *Handlers, tokens services.TokenService) {
	authMw := middleware.NewAuthMiddleware(tokens)
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(handler)
	}

	mux.HandleFunc("GET /api/health", h.Health.Get)

	// Unread
	mux.Handle("GET /api/unread", auth(h.Unread.Get))
	mux.Handle("POST /api/unread/refresh", auth(h.Unread.Refresh))

	// DM
	mux.Handle("POST /api/dm/{userId}/messages", auth(h.DM.SendMessage))
	mux.Handle("POST /api/dm/{userId}/read", auth(h.DM.MarkRead))

	// Groups
	mux.Handle("POST /api/groups", auth(h.Group.Create))
	mux.Handle("GET /api/groups", auth(h.Group.List))
	mux.Handle("POST /api/groups/{id}/join", auth(h.Group.Join))
	mux.Handle("POST /api/groups/{id}/leave", auth(h.Group.Leave))
	mux.Handle("POST /api/groups/{id}/messages", auth(h.Group.SendMessage))
	mux.Handle("POST /api/groups/{id}/read", auth(h.ReadState.MarkRead))
	mux.Handle("GET /api/groups/{id}/read", auth(h.ReadState.GetMarker))

	// WebSocket — tarayıcılar upgrade'de header gönderemez, token query'de:
	//   ws://server/ws?token=JWT_TOKEN
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}
