// Package ratelimit: RefreshRateLimiter: manuel unread refresh isteklerine
// kullanıcı bazlı sınır.
//
// Refresh pahalı bir işlemdir (fallback yolunda grup sayısı kadar sorgu),
// bu yüzden HTTP ve WebSocket üzerinden gelen manuel refresh istekleri
// kullanıcı başına sınırlanır. Feed event'leriyle tetiklenen refresh'ler
// bu limiter'dan geçmez.
//
// Tasarım:
// - Window içinde maxRequests kadar istek kabul edilir.
// - Limit aşılınca cooldown başlar, cooldown bitene kadar tüm istekler reddedilir.
// - Background goroutine süresi dolmuş bucket'ları temizler; Close() ile durur.
package ratelimit

import (
	"sync"
	"time"
)

// bucket, bir kullanıcı için istek sayacı ve cooldown bilgisi.
type bucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time // zero value = cooldown yok
}

// RefreshRateLimiter, kullanıcı bazlı refresh rate limiting.
//
//	limiter := NewRefreshRateLimiter(5, 10*time.Second, 30*time.Second)
//	defer limiter.Close()
//	if !limiter.Allow(userID) { return 429 }
type RefreshRateLimiter struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	maxRequests int
	window      time.Duration
	cooldown    time.Duration
	now         func() time.Time

	stopCleanup chan struct{}
	closeOnce   sync.Once
	done        chan struct{}
}

// NewRefreshRateLimiter, limiter oluşturur ve temizleme goroutine'ini başlatır.
// maxRequests <= 0 ise limiter her isteğe izin verir.
func NewRefreshRateLimiter(maxRequests int, window, cooldown time.Duration) *RefreshRateLimiter {
	rl := &RefreshRateLimiter{
		buckets:     make(map[string]*bucket),
		maxRequests: maxRequests,
		window:      window,
		cooldown:    cooldown,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
		done:        make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow, kullanıcının refresh isteğinin kabul edilip edilmeyeceğini döner.
//
// Akış:
// 1. Cooldown'daysa → reject.
// 2. Cooldown bitmişse veya window dolmuşsa → yeni pencere.
// 3. Window içindeyse → count artır, max aşıldıysa cooldown başlat.
func (rl *RefreshRateLimiter) Allow(userID string) bool {
	if rl.maxRequests <= 0 {
		return true
	}

	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[userID]
	if !exists {
		rl.buckets[userID] = &bucket{count: 1, windowStart: now}
		return true
	}

	if !b.cooldownUntil.IsZero() && now.Before(b.cooldownUntil) {
		return false
	}

	if !b.cooldownUntil.IsZero() || now.Sub(b.windowStart) > rl.window {
		b.count = 1
		b.windowStart = now
		b.cooldownUntil = time.Time{}
		return true
	}

	b.count++
	if b.count > rl.maxRequests {
		b.cooldownUntil = now.Add(rl.cooldown)
		return false
	}

	return true
}

// CooldownSeconds, kalan cooldown süresini saniye cinsinden döner (Retry-After).
func (rl *RefreshRateLimiter) CooldownSeconds(userID string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[userID]
	if !exists || b.cooldownUntil.IsZero() {
		return 0
	}

	remaining := b.cooldownUntil.Sub(rl.now())
	if remaining <= 0 {
		return 0
	}

	// +1 yuvarlama: client'ın tam süreyi beklemesi için
	return int(remaining.Seconds()) + 1
}

// Close, temizleme goroutine'ini durdurur. Idempotent.
func (rl *RefreshRateLimiter) Close() {
	rl.closeOnce.Do(func() {
		close(rl.stopCleanup)
	})
	<-rl.done
}

func (rl *RefreshRateLimiter) cleanupLoop() {
	defer close(rl.done)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanup, hem window'u hem cooldown'u bitmiş bucket'ları siler.
func (rl *RefreshRateLimiter) cleanup() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for userID, b := range rl.buckets {
		windowExpired := now.Sub(b.windowStart) > rl.window
		cooldownExpired := b.cooldownUntil.IsZero() || now.After(b.cooldownUntil)

		if windowExpired && cooldownExpired {
			delete(rl.buckets, userID)
		}
	}
}
