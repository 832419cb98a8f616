// Package cache: generic in-memory TTL cache.
//
// TTLCache, belirli bir süre sonra kendiliğinden geçersiz olan kayıtları tutan
// thread-safe, generic bir cache yapısıdır.
//
// Kullanım alanı:
// Unread aggregator bu cache'i "fast path son zamanlarda başarısız oldu mu?"
// bilgisini kullanıcı başına tutmak için kullanır. Aggregate sorgusu hata
// verdiğinde kullanıcı FastPathRetry süresince doğrudan fallback yoluna
// gider; her yenilemede bozuk sorguyu tekrar denemek DB'yi boşuna yorar.
//
// TTL (Time To Live) nedir?
// Her entry bir "son kullanma tarihi" taşır. Bu tarih geçtikten sonra Get
// entry'yi görmez (cache miss). Map'ten fiziksel silme arka planda,
// cleanupInterval aralıklarla yapılır.
//
// Thread safety:
// sync.RWMutex ile korunur: birden fazla goroutine aynı anda okuyabilir
// (fallback batch'leri paralel çalışır), yazma sırasında tüm erişim bloklanır.
package cache

import (
	"sync"
	"time"
)

// entry, cache'teki tek bir kayıttır.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache, her entry'nin belirli bir süre sonra geçersiz olduğu generic cache.
//
// Generic nedir? (Go 1.18+)
// K ve V tip parametreleridir, cache oluşturulurken concrete tipler verilir.
// Counter'da key userID, value son fast path hatasıdır:
//
//	down := cache.New[string, error](retry, retry)
//	down.Set(userID, err)
//	if _, ok := down.Get(userID); ok { /* fallback */ }
//
// Tip güvenliği derleme zamanında sağlanır, interface{} → type assertion yoktur.
//
//	c := cache.New[string, int](30*time.Second, time.Minute)
//	defer c.Close()
//	c.Set("key", 42)
//	val, ok := c.Get("key")
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	// now: testlerde saat ilerletmek için değiştirilebilir.
	now func() time.Time

	// stopCleanup: periyodik temizleme goroutine'ini durdurmak için.
	// Close() çağrıldığında bu channel kapatılır; done goroutine çıkınca kapanır.
	stopCleanup chan struct{}
	closeOnce   sync.Once
	done        chan struct{}
}

// New, yeni bir TTLCache oluşturur ve periyodik temizleme goroutine'ini başlatır.
//
// ttl: her entry'nin varsayılan yaşam süresi
// cleanupInterval: süresi dolan entry'lerin map'ten ne sıklıkla silineceği
//
// cleanupInterval neden ayrı?
// Get her okumada süre kontrolü yapar (süresi dolmuş entry dönmez), ama
// silme olmazsa bir kere hata almış her kullanıcı map'te kalır ve bellek
// büyür. Periyodik temizlik bunu önler.
//
// Close() çağrılmadan bırakılan cache goroutine sızdırır.
func New[K comparable, V any](ttl, cleanupInterval time.Duration) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		entries:     make(map[K]entry[V]),
		ttl:         ttl,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
		done:        make(chan struct{}),
	}

	go func() {
		defer close(c.done)

		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.evictExpired()
			case <-c.stopCleanup:
				return
			}
		}
	}()

	return c
}

// Get, (value, true) döner eğer key varsa ve süresi dolmamışsa.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set, cache'e varsayılan TTL ile bir değer yazar.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL, cache'e özel bir TTL ile değer yazar.
func (c *TTLCache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// Delete, belirli bir key'i siler.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Len, cache'teki toplam entry sayısını döner (süresi dolmuşlar dahil).
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Close, temizleme goroutine'ini durdurur ve bitmesini bekler. Idempotent.
func (c *TTLCache[K, V]) Close() {
	c.closeOnce.Do(func() {
		close(c.stopCleanup)
	})
	<-c.done
}

func (c *TTLCache[K, V]) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
