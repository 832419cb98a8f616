package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/unread/models"
	"github.com/akinalp/unread/pkg"
	"github.com/akinalp/unread/pkg/ratelimit"
	"github.com/akinalp/unread/unread"
)

// UnreadService, okunmamış sayısı iş mantığı interface'i.
//
//   - Get: aktif session varsa onun sayısı, yoksa tek seferlik hesaplama
//   - Refresh: senkron yeniden hesaplama: kullanıcı başına rate limit'li
//   - Connect / Disconnect: WebSocket bağlantı yaşam döngüsü; ilk bağlantı
//     session'ı başlatır, son bağlantı kapatır (sayı 0'a döner)
type UnreadService interface {
	Get(ctx context.Context, userID string) (models.UnreadCount, error)
	Refresh(ctx context.Context, userID string) (models.UnreadCount, error)
	RetryAfter(userID string) int
	Connect(ctx context.Context, userID string) (models.UnreadCount, error)
	Disconnect(userID string)
}

type unreadService struct {
	sessions *unread.Manager
	counter  *unread.Counter
	limiter  *ratelimit.RefreshRateLimiter
	log      *zap.Logger
}

// NewUnreadService, constructor. limiter nil ise Refresh sınırsızdır.
func NewUnreadService(
	sessions *unread.Manager,
	counter *unread.Counter,
	limiter *ratelimit.RefreshRateLimiter,
	log *zap.Logger,
) UnreadService {
	if log == nil {
		log = zap.NewNop()
	}
	return &unreadService{
		sessions: sessions,
		counter:  counter,
		limiter:  limiter,
		log:      log,
	}
}

func (s *unreadService) Get(ctx context.Context, userID string) (models.UnreadCount, error) {
	if session, ok := s.sessions.Get(userID); ok {
		return ToUnreadCount(session.Snapshot()), nil
	}
	return s.computeOnce(ctx, userID)
}

func (s *unreadService) Refresh(ctx context.Context, userID string) (models.UnreadCount, error) {
	if s.limiter != nil && !s.limiter.Allow(userID) {
		return models.UnreadCount{}, fmt.Errorf("%w: unread refresh rate limited", pkg.ErrTooManyRequests)
	}

	session, ok := s.sessions.Get(userID)
	if !ok {
		return s.computeOnce(ctx, userID)
	}

	if err := session.RefreshNow(ctx); err != nil {
		// fail-soft: önceki sayı döner
		s.log.Warn("manual unread refresh failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}
	return ToUnreadCount(session.Snapshot()), nil
}

func (s *unreadService) RetryAfter(userID string) int {
	if s.limiter == nil {
		return 0
	}
	return s.limiter.CooldownSeconds(userID)
}

func (s *unreadService) Connect(ctx context.Context, userID string) (models.UnreadCount, error) {
	session, err := s.sessions.Acquire(ctx, userID)
	if err != nil {
		return models.UnreadCount{}, err
	}
	return ToUnreadCount(session.Snapshot()), nil
}

func (s *unreadService) Disconnect(userID string) {
	s.sessions.Release(userID)
}

// computeOnce, session'ı olmayan kullanıcı için (ör. sadece HTTP kullanan
// istemci) tek seferlik sayım yapar. Seq 0 döner.
func (s *unreadService) computeOnce(ctx context.Context, userID string) (models.UnreadCount, error) {
	res, err := s.counter.Compute(ctx, userID)
	if err != nil {
		s.log.Warn("one-shot unread count failed",
			zap.String("user_id", userID),
			zap.Error(err))
		return models.UnreadCount{}, fmt.Errorf("%w: unread count unavailable", pkg.ErrInternal)
	}
	return models.UnreadCount{
		Count:     res.Total,
		Path:      string(res.Path),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// ToUnreadCount, session snapshot'ını API/WS modeline çevirir.
func ToUnreadCount(snap unread.Snapshot) models.UnreadCount {
	return models.UnreadCount{
		Count:     snap.Count,
		Seq:       snap.Seq,
		Path:      string(snap.Path),
		UpdatedAt: snap.UpdatedAt,
	}
}
