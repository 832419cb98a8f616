package unread

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Path, sayımın hangi yoldan hesaplandığı.
type Path string

const (
	PathFast     Path = "fast"
	PathFallback Path = "fallback"
	PathReset    Path = "reset"
)

// Snapshot, Store'un o anki durumunun kopyası: OnChange ve HTTP yanıtları bunu taşır.
type Snapshot struct {
	UserID    string
	Count     int
	Seq       uint64
	Path      Path
	UpdatedAt time.Time
}

// Store, tek bir kullanıcının okunmamış sayısını tutan state container.
//
// Yazmalar sıra numarasıyla korunur: her yeniden hesaplama başlamadan önce
// NextSeq ile bir numara alır, sonucu apply ile yazar. Son uygulanan
// numaradan küçük ya da eşit numaralı sonuçlar eskidir ve atılır: geç biten
// yavaş bir hesaplama, daha yeni bir sonucun üzerine yazamaz.
type Store struct {
	userID string
	log    *zap.Logger

	// notifyMu: apply/reset + onChange çağrısını sıralar.
	// Callback mu tutulmadan çağrılır, Count() okuyabilir.
	notifyMu sync.Mutex
	onChange func(Snapshot)

	mu      sync.RWMutex
	count   int
	issued  uint64
	applied uint64
	path    Path
	updated time.Time
}

// NewStore, sayısı 0 olan bir Store oluşturur. onChange nil olabilir.
func NewStore(userID string, onChange func(Snapshot), log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		userID:   userID,
		onChange: onChange,
		log:      log,
	}
}

// Count, o anki okunmamış sayısı.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Snapshot, o anki durumun kopyasını döner.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		UserID:    s.userID,
		Count:     s.count,
		Seq:       s.applied,
		Path:      s.path,
		UpdatedAt: s.updated,
	}
}

// NextSeq, yeni bir hesaplama için artan sıra numarası verir.
func (s *Store) NextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// apply, seq son uygulanandan büyükse sonucu yazar.
// Yazıldıysa true döner; sayı değiştiyse onChange çağrılır.
func (s *Store) apply(seq uint64, count int, path Path) bool {
	if count < 0 {
		count = 0
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if seq <= s.applied {
		applied := s.applied
		s.mu.Unlock()
		s.log.Debug("stale unread result dropped",
			zap.String("user_id", s.userID),
			zap.Uint64("seq", seq),
			zap.Uint64("applied", applied))
		return false
	}
	changed := s.count != count
	s.count = count
	s.applied = seq
	s.path = path
	s.updated = time.Now()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if changed && s.onChange != nil {
		s.onChange(snap)
	}
	return true
}

// reset, sayıyı 0'a çeker ve o ana kadar verilmiş tüm sıra numaralarını
// geçersiz kılar: devam eden hesaplamalar artık yazamaz.
func (s *Store) reset() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.issued++
	s.applied = s.issued
	s.count = 0
	s.path = PathReset
	s.updated = time.Now()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(snap)
	}
}
