package feed

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed, kapatılmış Broker'a abone olmaya çalışıldığında döner.
var ErrClosed = errors.New("change feed closed")

// Subscription, tek bir filtreye bağlı abonelik.
// C() kanalı Unsubscribe veya Broker.Close ile kapanır.
type Subscription struct {
	id      uint64
	filter  Filter
	ch      chan Change
	broker  *Broker
	once    sync.Once
	dropped atomic.Int64
}

// C, değişikliklerin geldiği kanal.
func (s *Subscription) C() <-chan Change {
	return s.ch
}

// Dropped, buffer dolduğu için bu aboneye iletilemeyen değişiklik sayısı.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Unsubscribe, aboneliği serbest bırakır. Idempotent.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.broker.remove(s)
	})
}
