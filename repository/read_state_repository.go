package repository

import (
	"context"
	"time"
)

// ReadMarkerRepository, grup okuma işaretçileri (watermark) için interface.
//
// Get: işaretçi yoksa (zero, false, nil) döner: "hiç okunmadı" ile
// "okuma bilgisi yok" ayrımı çağırana bırakılır.
// Upsert: işaretçi sadece ileri gider, geri alınamaz.
type ReadMarkerRepository interface {
	Get(ctx context.Context, groupID, userID string) (time.Time, bool, error)
	Upsert(ctx context.Context, groupID, userID string, at time.Time) error
}
