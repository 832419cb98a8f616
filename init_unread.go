// Package main — Unread aggregator başlatma.
//
// initUnread, change feed'den beslenen aggregator bileşenlerini kurar:
//   - Counter: fast path (UnreadRepository) + fallback (Message/Group/ReadMarker)
//   - Manager: kullanıcı başına session, WebSocket bağlantılarıyla yaşar
//   - RefreshRateLimiter: manuel yenileme isteklerini sınırlar
package main

import (
	"go.uber.org/zap"

	"github.com/akinalp/unread/config"
	"github.com/akinalp/unread/feed"
	"github.com/akinalp/unread/pkg/ratelimit"
	"github.com/akinalp/unread/unread"
)

// UnreadStack, aggregator bileşenlerini tutan container struct.
type UnreadStack struct {
	Counter *unread.Counter
	Manager *unread.Manager
	Limiter *ratelimit.RefreshRateLimiter
}

// initUnread, aggregator'ı kurar. onChange her sayı değişikliğinde çağrılır.
func initUnread(
	cfg *config.Config,
	repos *Repositories,
	broker *feed.Broker,
	onChange func(unread.Snapshot),
	log *zap.Logger,
) *UnreadStack {
	sources := unread.Sources{
		Direct:        repos.Message,
		Groups:        repos.Group,
		Markers:       repos.ReadMarker,
		GroupMessages: repos.Message,
	}
	if cfg.Unread.FastPath {
		sources.Aggregate = repos.Unread
	} else {
		log.Info("unread fast path disabled, using per-source counts")
	}

	counter := unread.NewCounter(sources, unread.CounterConfig{
		BatchSize:     cfg.Unread.BatchSize,
		FastPathRetry: cfg.Unread.FastPathRetry,
	}, log.Named("counter"))

	manager := unread.NewManager(unread.Deps{
		Counter: counter,
		Groups:  repos.Group,
		Feed:    broker,
	}, unread.Options{
		FullRefreshInterval: cfg.Unread.FullRefreshInterval,
		OnChange:            onChange,
	}, log)

	limiter := ratelimit.NewRefreshRateLimiter(
		cfg.Unread.RefreshLimit,
		cfg.Unread.RefreshWindow,
		cfg.Unread.RefreshCooldown,
	)

	return &UnreadStack{
		Counter: counter,
		Manager: manager,
		Limiter: limiter,
	}
}

// Close, session'ları kapatır ve arka plan goroutine'lerini durdurur.
func (u *UnreadStack) Close() {
	u.Manager.Close()
	u.Counter.Close()
	u.Limiter.Close()
}
