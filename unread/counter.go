package unread

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/akinalp/unread/pkg/cache"
)

// DefaultBatchSize, fallback yolunda aynı anda sayılan grup sayısı.
const DefaultBatchSize = 5

// ErrAggregateUnavailable, fast path devre dışıyken ya da yakın zamanda
// başarısız olduğu için atlandığında döner.
var ErrAggregateUnavailable = errors.New("unread aggregate unavailable")

// AggregateSource, okunmamış toplamını tek çağrıda veren kaynak (fast path).
type AggregateSource interface {
	TotalUnread(ctx context.Context, userID string) (int, error)
}

// DirectCounter, okunmamış DM sayısı.
type DirectCounter interface {
	CountUnreadDirect(ctx context.Context, receiverID string) (int, error)
}

// GroupLister, kullanıcının üyesi olduğu grupların id'leri.
type GroupLister interface {
	ListUserGroupIDs(ctx context.Context, userID string) ([]string, error)
}

// MarkerReader, (grup, kullanıcı) okuma işaretçisi. İşaretçi yoksa ok=false.
type MarkerReader interface {
	Get(ctx context.Context, groupID, userID string) (time.Time, bool, error)
}

// GroupCounter, bir grupta since'ten sonra başkalarının gönderdiği mesaj sayısı.
type GroupCounter interface {
	CountGroupMessagesSince(ctx context.Context, groupID string, since time.Time, excludeSenderID string) (int, error)
}

// Sources, Counter'ın okuduğu kaynaklar. Aggregate nil ise fast path kapalıdır.
type Sources struct {
	Aggregate     AggregateSource
	Direct        DirectCounter
	Groups        GroupLister
	Markers       MarkerReader
	GroupMessages GroupCounter
}

// CounterConfig, Counter ayarları.
type CounterConfig struct {
	// BatchSize <= 0 → DefaultBatchSize
	BatchSize int
	// FastPathRetry: fast path hata verdikten sonra kullanıcı için bu süre
	// boyunca doğrudan fallback kullanılır. 0 → her seferinde yeniden dene.
	FastPathRetry time.Duration
}

// Result, bir hesaplamanın sonucu.
type Result struct {
	Total  int
	Direct int
	Groups map[string]int
	Path   Path
}

// Counter, okunmamış toplamını hesaplar: önce tek çağrılık aggregate,
// o başarısız olursa kaynak başına sayım.
type Counter struct {
	src       Sources
	batchSize int
	log       *zap.Logger

	// fastPathDown: userID → son fast path hatası. nil → memoize yok.
	fastPathDown *cache.TTLCache[string, error]
}

// NewCounter, yeni bir Counter oluşturur. Close ile kapatılmalıdır.
func NewCounter(src Sources, cfg CounterConfig, log *zap.Logger) *Counter {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	c := &Counter{
		src:       src,
		batchSize: cfg.BatchSize,
		log:       log,
	}
	if src.Aggregate != nil && cfg.FastPathRetry > 0 {
		c.fastPathDown = cache.New[string, error](cfg.FastPathRetry, cfg.FastPathRetry)
	}
	return c
}

// Close, fast path hata cache'inin temizleme goroutine'ini durdurur.
func (c *Counter) Close() {
	if c.fastPathDown != nil {
		c.fastPathDown.Close()
	}
}

// Compute, kullanıcının toplam okunmamış sayısını hesaplar.
func (c *Counter) Compute(ctx context.Context, userID string) (Result, error) {
	total, err := c.fastPath(ctx, userID)
	if err == nil {
		return Result{Total: total, Path: PathFast}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, ctxErr
	}
	if !errors.Is(err, ErrAggregateUnavailable) {
		c.log.Warn("unread aggregate failed, using fallback",
			zap.String("user_id", userID),
			zap.Error(err))
		if c.fastPathDown != nil {
			c.fastPathDown.Set(userID, err)
		}
	}

	return c.Fallback(ctx, userID)
}

func (c *Counter) fastPath(ctx context.Context, userID string) (int, error) {
	if c.src.Aggregate == nil {
		return 0, ErrAggregateUnavailable
	}
	if c.fastPathDown != nil {
		if _, down := c.fastPathDown.Get(userID); down {
			return 0, ErrAggregateUnavailable
		}
	}
	return c.src.Aggregate.TotalUnread(ctx, userID)
}

// Fallback, toplamı kaynak başına sayımla hesaplar:
// DM sayısı, ardından grup listesi, ardından her grup için işaretçi + sayım.
//
// Gruplar BatchSize'lık partilerle işlenir: parti içi paralel, partiler
// sıralı. Herhangi bir hata tüm hesaplamayı iptal eder.
func (c *Counter) Fallback(ctx context.Context, userID string) (Result, error) {
	direct, err := c.src.Direct.CountUnreadDirect(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("count direct messages: %w", err)
	}

	groupIDs, err := c.src.Groups.ListUserGroupIDs(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("list groups: %w", err)
	}

	counts := make([]int, len(groupIDs))
	for start := 0; start < len(groupIDs); start += c.batchSize {
		end := min(start+c.batchSize, len(groupIDs))

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				n, err := c.countGroup(gctx, userID, groupIDs[i])
				if err != nil {
					return fmt.Errorf("count group %s: %w", groupIDs[i], err)
				}
				counts[i] = n
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Result{}, err
		}
	}

	res := Result{
		Total:  direct,
		Direct: direct,
		Groups: make(map[string]int, len(groupIDs)),
		Path:   PathFallback,
	}
	for i, id := range groupIDs {
		res.Groups[id] = counts[i]
		res.Total += counts[i]
	}
	return res, nil
}

// countGroup: işaretçi yoksa grup 0 katkı yapar.
func (c *Counter) countGroup(ctx context.Context, userID, groupID string) (int, error) {
	since, ok, err := c.src.Markers.Get(ctx, groupID, userID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return c.src.GroupMessages.CountGroupMessagesSince(ctx, groupID, since, userID)
}
