package unread

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/unread/feed"
)

// ErrSessionClosed, kapatılmış bir session üzerinde yenileme istendiğinde döner.
var ErrSessionClosed = errors.New("unread session closed")

// Subscriber, change feed'e abone olma yeteneği (feed.Broker karşılar).
type Subscriber interface {
	Subscribe(f feed.Filter) (*feed.Subscription, error)
}

// Computer, okunmamış toplamını hesaplayan bileşen (Counter karşılar).
type Computer interface {
	Compute(ctx context.Context, userID string) (Result, error)
}

// Deps, bir Session'ın bağımlılıkları.
type Deps struct {
	Counter Computer
	Groups  GroupLister
	Feed    Subscriber
}

// Options, Session ayarları.
type Options struct {
	// FullRefreshInterval: periyodik tam yenileme + üyelik eşleme aralığı. 0 → kapalı.
	FullRefreshInterval time.Duration
	// OnChange: sayı değiştiğinde (ve reset'te) çağrılır.
	OnChange func(Snapshot)
}

// Session, oturum açmış tek bir kullanıcının okunmamış sayısını canlı tutar.
//
// Yaşam döngüsü:
//  1. Start: DM, üyelik ve okuma işaretçisi abonelikleri açılır, her grup için
//     bir abonelik kurulur, ilk hesaplama yapılır
//  2. Herhangi bir ilgili değişiklik Refresh() tetikler: tetiklemeler
//     birleştirilir, tek bir worker sırayla yeniden hesaplar
//  3. Close: tüm abonelikler bırakılır, goroutine'ler durur, sayı 0'a çekilir
type Session struct {
	userID string
	deps   Deps
	opts   Options
	store  *Store
	log    *zap.Logger

	trigger chan struct{}
	resync  atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu: abonelikleri ve started/closed durumunu korur.
	mu        sync.Mutex
	started   bool
	closed    bool
	subs      []*feed.Subscription
	groupSubs map[string]*feed.Subscription
}

// NewSession, başlatılmamış bir Session oluşturur.
func NewSession(userID string, deps Deps, opts Options, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("user_id", userID))

	return &Session{
		userID:    userID,
		deps:      deps,
		opts:      opts,
		store:     NewStore(userID, opts.OnChange, log),
		log:       log,
		trigger:   make(chan struct{}, 1),
		groupSubs: make(map[string]*feed.Subscription),
	}
}

// UserID, session'ın sahibi.
func (s *Session) UserID() string { return s.userID }

// Count, o anki okunmamış sayısı.
func (s *Session) Count() int { return s.store.Count() }

// Snapshot, o anki durumun kopyası.
func (s *Session) Snapshot() Snapshot { return s.store.Snapshot() }

// Start, abonelikleri kurar, worker'ı başlatır ve ilk hesaplamayı yapar.
//
// Sadece feed aboneliği kurulamazsa hata döner. Grup listeleme veya ilk
// hesaplama hataları loglanır; sayı 0 kalır ve sonraki tetiklemede düzelir.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("unread session already started")
	}
	s.started = true
	// Session context'i isteğin iptalinden bağımsızdır, Close ile biter.
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Unlock()

	filters := []struct {
		filter feed.Filter
		handle func(feed.Change)
	}{
		{
			filter: feed.Filter{
				Table:  feed.TableDirectMessages,
				Ops:    []feed.Op{feed.OpInsert, feed.OpUpdate},
				Column: "receiver_id",
				Value:  s.userID,
			},
			handle: func(feed.Change) { s.Refresh() },
		},
		{
			filter: feed.Filter{
				Table:  feed.TableGroupMembers,
				Column: "user_id",
				Value:  s.userID,
			},
			handle: func(feed.Change) {
				s.resync.Store(true)
				s.Refresh()
			},
		},
		{
			filter: feed.Filter{
				Table:  feed.TableGroupReads,
				Column: "user_id",
				Value:  s.userID,
			},
			handle: func(feed.Change) { s.Refresh() },
		},
	}

	for _, f := range filters {
		if err := s.watch(f.filter, f.handle, nil); err != nil {
			s.Close()
			return fmt.Errorf("subscribe %s: %w", f.filter.Table, err)
		}
	}

	if err := s.syncGroups(ctx); err != nil {
		s.log.Warn("failed to list groups for unread session", zap.Error(err))
		s.resync.Store(true)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.wg.Add(1)
	s.mu.Unlock()
	go s.loop()

	if err := s.RefreshNow(ctx); err != nil && !errors.Is(err, ErrSessionClosed) {
		// fail-soft: sayı 0 kalır
		s.log.Debug("initial unread refresh failed", zap.Error(err))
	}

	s.log.Info("unread session started", zap.Int("groups", s.groupCount()))
	return nil
}

// Refresh, asenkron yeniden hesaplama ister. Bloklamaz; bekleyen bir istek
// varsa yenisi onunla birleşir.
func (s *Session) Refresh() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// RefreshNow, senkron yeniden hesaplar. Hata durumunda önceki sayı korunur
// ve hata loglanıp döndürülür.
func (s *Session) RefreshNow(ctx context.Context) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}
	return s.recompute(ctx)
}

func (s *Session) recompute(ctx context.Context) error {
	seq := s.store.NextSeq()

	res, err := s.deps.Counter.Compute(ctx, s.userID)
	if err != nil {
		s.log.Warn("unread refresh failed, keeping previous count",
			zap.Uint64("seq", seq),
			zap.Error(err))
		return err
	}

	// Close ile yarışan bir sonuç reset'ten sonra yazılmamalı.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.store.apply(seq, res.Total, res.Path)
	return nil
}

// loop, birleştirilmiş tetiklemeleri ve periyodik tam yenilemeyi işleyen tek worker.
func (s *Session) loop() {
	defer s.wg.Done()

	var tick <-chan time.Time
	if s.opts.FullRefreshInterval > 0 {
		ticker := time.NewTicker(s.opts.FullRefreshInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.trigger:
		case <-tick:
			s.resync.Store(true)
		}
		if s.ctx.Err() != nil {
			return
		}

		if s.resync.Swap(false) {
			if err := s.syncGroups(s.ctx); err != nil {
				s.log.Warn("failed to resync group subscriptions", zap.Error(err))
				s.resync.Store(true)
			}
		}
		_ = s.recompute(s.ctx)
	}
}

// syncGroups, kullanıcının grup listesini yeniden okur ve grup aboneliklerini
// artımlı olarak eşler: yeni gruplar için abonelik açılır, ayrılınanlar bırakılır.
func (s *Session) syncGroups(ctx context.Context) error {
	ids, err := s.deps.Groups.ListUserGroupIDs(ctx, s.userID)
	if err != nil {
		return err
	}

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	s.mu.Lock()
	var stale []*feed.Subscription
	for id, sub := range s.groupSubs {
		if _, ok := want[id]; !ok {
			stale = append(stale, sub)
			delete(s.groupSubs, id)
		}
	}
	var added []string
	for _, id := range ids {
		if _, ok := s.groupSubs[id]; !ok {
			added = append(added, id)
		}
	}
	s.mu.Unlock()

	for _, sub := range stale {
		sub.Unsubscribe()
	}

	for _, id := range added {
		groupID := id
		err := s.watch(feed.Filter{
			Table:  feed.TableGroupMessages,
			Ops:    []feed.Op{feed.OpInsert},
			Column: "group_id",
			Value:  groupID,
		}, func(c feed.Change) {
			if c.Row["sender_id"] == s.userID {
				return
			}
			s.Refresh()
		}, &groupID)
		if err != nil {
			return fmt.Errorf("subscribe group %s: %w", groupID, err)
		}
	}

	if len(stale) > 0 || len(added) > 0 {
		s.log.Debug("group subscriptions resynced",
			zap.Int("added", len(added)),
			zap.Int("removed", len(stale)))
	}
	return nil
}

// watch, bir abonelik açar ve kanalını dinleyen bir goroutine başlatır.
// groupID nil değilse abonelik grup aboneliği olarak kaydedilir.
func (s *Session) watch(f feed.Filter, handle func(feed.Change), groupID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	sub, err := s.deps.Feed.Subscribe(f)
	if err != nil {
		return err
	}
	if groupID != nil {
		s.groupSubs[*groupID] = sub
	} else {
		s.subs = append(s.subs, sub)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for c := range sub.C() {
			handle(c)
		}
	}()
	return nil
}

func (s *Session) groupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.groupSubs)
}

// Close, tüm abonelikleri bırakır, worker'ları durdurup bekler ve sayıyı
// 0'a çeker. Close sonrasında yeni mesajlar hesaplama tetiklemez. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true

	subs := s.subs
	s.subs = nil
	for id, sub := range s.groupSubs {
		subs = append(subs, sub)
		delete(s.groupSubs, id)
	}
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, sub := range subs {
		sub.Unsubscribe()
	}
	s.wg.Wait()

	s.store.reset()
	s.log.Info("unread session closed")
}
