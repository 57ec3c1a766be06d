// Package repo implements the data persistence layer for the badge service,
// backed by GORM. This file provides the append-only click-event store and a
// small aggregate query used by operator tooling.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/launchboard/badge-service/internal/domain"
)

// maxReferrerLen caps stored referrers; anything longer is truncated, not
// rejected, because a click must never fail on metadata.
const maxReferrerLen = 500

// AppendClickEvent inserts one click-analytics row for the product. The
// timestamp is server-assigned by the caller so that the repo stays free of
// clock reads in tests.
func AppendClickEvent(ctx context.Context, db *gorm.DB, productID, referrer string, ts time.Time) error {
	if len(referrer) > maxReferrerLen {
		referrer = referrer[:maxReferrerLen]
	}
	ev := &domain.ClickEvent{
		ID:        uuid.NewString(),
		ProductID: productID,
		Referrer:  referrer,
		CreatedAt: ts.UTC(),
	}
	return db.WithContext(ctx).Create(ev).Error
}

// ClickStats returns aggregate metadata for a product's clicks: the total
// number of rows and the most recent click timestamp.
//
// When the product has no clicks, the returned count is 0 and lastClick is
// nil.
//
// Return values:
//   - count:     total click events for productID
//   - lastClick: pointer to the latest CreatedAt, or nil if no rows
//   - err:       database error, if any
func ClickStats(ctx context.Context, db *gorm.DB, productID string) (count int64, lastClick *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.ClickEvent{}).Where("product_id = ?", productID)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
