package feed

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultBufferSize, her aboneliğin kanal buffer'ı.
const DefaultBufferSize = 64

// Publisher, service katmanının değişiklik yayınlamak için kullandığı interface.
// Service'ler Broker'a değil bu interface'e bağımlıdır.
type Publisher interface {
	Publish(c Change)
}

// Broker, abonelikleri tutan ve değişiklikleri dağıtan merkezi yapı.
type Broker struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool

	// seq: her yayınlanan değişikliğe verilen artan sayaç.
	seq atomic.Int64

	bufferSize int
	log        *zap.Logger
}

// NewBroker, yeni bir Broker oluşturur. bufferSize <= 0 → DefaultBufferSize.
func NewBroker(bufferSize int, log *zap.Logger) *Broker {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Broker{
		subs:       make(map[uint64]*Subscription),
		bufferSize: bufferSize,
		log:        log,
	}
}

// Subscribe, filtreye uyan değişiklikleri alacak yeni bir abonelik açar.
// Kapalı Broker'a abone olunamaz.
func (b *Broker) Subscribe(f Filter) (*Subscription, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	b.nextID++
	sub := &Subscription{
		id:     b.nextID,
		filter: f,
		ch:     make(chan Change, b.bufferSize),
		broker: b,
	}
	b.subs[sub.id] = sub

	b.log.Debug("subscription opened",
		zap.Uint64("id", sub.id),
		zap.Stringer("filter", f))
	return sub, nil
}

// Publish, değişikliği eşleşen tüm abonelere bırakır. Hiçbir zaman bloklamaz.
//
// Kanala gönderim RLock altında yapılır; Unsubscribe kanalı Lock altında
// kapattığı için kapalı kanala gönderim olmaz.
func (b *Broker) Publish(c Change) {
	c.Seq = b.seq.Add(1)
	if c.At.IsZero() {
		c.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subs {
		if !sub.filter.Matches(c) {
			continue
		}
		select {
		case sub.ch <- c:
		default:
			// Buffer dolu: abone yavaş, bu değişikliği düşür
			sub.dropped.Add(1)
			b.log.Warn("subscriber buffer full, change dropped",
				zap.Uint64("id", sub.id),
				zap.Stringer("filter", sub.filter),
				zap.Int64("seq", c.Seq))
		}
	}
}

// Len, açık abonelik sayısını döner.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close, tüm abonelikleri kapatır; sonraki Publish çağrıları yoksayılır.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
	b.log.Info("change feed closed")
}

// remove, aboneliği map'ten çıkarır ve kanalını kapatır.
func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub.id]; !ok {
		// Close() zaten kapatmış
		return
	}
	delete(b.subs, sub.id)
	close(sub.ch)

	b.log.Debug("subscription released",
		zap.Uint64("id", sub.id),
		zap.Stringer("filter", sub.filter))
}
