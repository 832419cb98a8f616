package unread

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrManagerClosed, kapatılmış Manager'dan session istendiğinde döner.
var ErrManagerClosed = errors.New("unread manager closed")

// managed, referans sayılı tek bir session kaydı.
// ready, Start tamamlanınca kapanır; err Start hatasını taşır.
// closing true iken son referans bırakılmıştır ve session kapanmaktadır;
// done, Close bitip kayıt map'ten silinince kapanır.
type managed struct {
	session *Session
	refs    int
	ready   chan struct{}
	err     error
	closing bool
	done    chan struct{}
}

// Manager, kullanıcı başına tek bir Session tutar.
//
// Aynı kullanıcının birden fazla bağlantısı (ör. iki sekme) aynı Session'ı
// paylaşır. Son referans bırakıldığında Session kapanır: abonelikler
// serbest kalır ve sayı 0'a çekilir (logout semantiği).
type Manager struct {
	deps Deps
	opts Options
	log  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*managed
	closed   bool
}

// NewManager, yeni bir Manager oluşturur. opts tüm session'lara uygulanır.
func NewManager(deps Deps, opts Options, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		deps:     deps,
		opts:     opts,
		log:      log,
		sessions: make(map[string]*managed),
	}
}

// Acquire, kullanıcının session'ını döner; yoksa oluşturup başlatır.
// Her başarılı Acquire bir Release ile eşlenmelidir.
//
// Start sırasında Manager kilidi tutulmaz: aynı kullanıcı için eşzamanlı
// Acquire çağrıları ilk Start'ın bitmesini bekler. Kapanmakta olan bir
// session varsa (ör. sayfa yenileme) önce onun Close'u beklenir; eski
// session'ın reset'i yeni session'ın yayınladığı sayının üzerine yazamaz.
func (m *Manager) Acquire(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	for {
		if m.closed {
			m.mu.Unlock()
			return nil, ErrManagerClosed
		}
		e, ok := m.sessions[userID]
		if !ok || !e.closing {
			break
		}
		m.mu.Unlock()
		select {
		case <-e.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		m.mu.Lock()
	}

	if e, ok := m.sessions[userID]; ok {
		e.refs++
		m.mu.Unlock()

		<-e.ready
		if e.err != nil {
			return nil, e.err
		}
		return e.session, nil
	}

	e := &managed{
		session: NewSession(userID, m.deps, m.opts, m.log),
		refs:    1,
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
	m.sessions[userID] = e
	m.mu.Unlock()

	err := e.session.Start(ctx)
	if err != nil {
		m.mu.Lock()
		e.err = err
		if m.sessions[userID] == e {
			delete(m.sessions, userID)
		}
		m.mu.Unlock()
		close(e.ready)

		e.session.Close()
		close(e.done)
		m.log.Warn("failed to start unread session",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, err
	}

	close(e.ready)
	return e.session, nil
}

// Release, bir referansı bırakır; son referanssa session'ı kapatır.
// Kayıt Close bitene kadar map'te kalır.
func (m *Manager) Release(userID string) {
	m.mu.Lock()
	e, ok := m.sessions[userID]
	if !ok || e.closing {
		m.mu.Unlock()
		return
	}
	e.refs--
	if e.refs > 0 {
		m.mu.Unlock()
		return
	}
	e.closing = true
	m.mu.Unlock()

	<-e.ready
	e.session.Close()

	m.mu.Lock()
	if m.sessions[userID] == e {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()
	close(e.done)
}

// Get, kullanıcının aktif (başlatılmış) session'ını döner.
func (m *Manager) Get(userID string) (*Session, bool) {
	m.mu.Lock()
	e, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}

	select {
	case <-e.ready:
	default:
		return nil, false
	}
	m.mu.Lock()
	closing := e.closing
	m.mu.Unlock()
	if e.err != nil || closing {
		return nil, false
	}
	return e.session, true
}

// Len, map'teki session sayısı (kapanmakta olanlar dahil).
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close, tüm session'ları kapatır. Sonraki Acquire çağrıları ErrManagerClosed döner.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	var entries, closing []*managed
	for id, e := range m.sessions {
		if e.closing {
			closing = append(closing, e)
			continue
		}
		entries = append(entries, e)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, e := range entries {
		<-e.ready
		e.session.Close()
		close(e.done)
	}
	// Release'in başlattığı kapanışlar kendi kaydını siler.
	for _, e := range closing {
		<-e.done
	}
	m.log.Info("unread manager closed", zap.Int("sessions", len(entries)))
}
