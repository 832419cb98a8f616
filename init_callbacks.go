// Package main — unread → WebSocket push wire-up.
//
// Hub ws paketinde, session'lar unread paketinde yaşar; ikisi birbirini
// tanımaz. main package wire-up noktasıdır.
package main

import (
	"github.com/akinalp/unread/services"
	"github.com/akinalp/unread/unread"
	"github.com/akinalp/unread/ws"
)

// unreadPushCallback, sayı değişikliklerini kullanıcının tüm bağlantılarına
// "unread_update" olarak iletir.
func unreadPushCallback(hub ws.Broadcaster) func(unread.Snapshot) {
	return func(snap unread.Snapshot) {
		hub.BroadcastToUser(snap.UserID, ws.Event{
			Op:   ws.OpUnreadUpdate,
			Data: services.ToUnreadCount(snap),
		})
	}
}
