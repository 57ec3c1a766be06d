// Package services – ClickService
//
// This file implements best-effort click analytics. A click append is the
// only write in the whole service and it is deliberately availability-over-
// accuracy: a failed analytics write must never break the embedding page, so
// append failures are logged and counted but swallowed. Lookup failures, by
// contrast, are real faults and are returned.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/launchboard/badge-service/internal/domain"
	"github.com/launchboard/badge-service/internal/repo"
	"github.com/launchboard/badge-service/internal/sysutil"
)

// ClickStore defines the repository contract required by ClickService.
type ClickStore interface {
	// FindProductBySlug fetches a product by its unique slug.
	FindProductBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Product, error)

	// AppendClickEvent inserts one click-analytics row.
	AppendClickEvent(ctx context.Context, db *gorm.DB, productID, referrer string, ts time.Time) error
}

// ClickService records badge clicks keyed by product.
type ClickService struct {
	// DB is the GORM handle used for lookups and appends.
	DB *gorm.DB
	// Store is the repository used by this service.
	Store ClickStore
	// Now supplies the event timestamp; overridable in tests.
	Now func() time.Time
}

// NewClickService constructs a ClickService.
func NewClickService(db *gorm.DB, store ClickStore) *ClickService {
	return &ClickService{DB: db, Store: store, Now: time.Now}
}

// Record resolves the product for slug and appends a click event.
//
// Referrer resolution prefers the explicit payload value over the HTTP
// Referer header; both may be empty.
//
// Error semantics:
//   - Unknown slug: ErrProductNotFound (the caller answers 404).
//   - Product lookup fault: the underlying error (the caller answers 500).
//   - Append fault: logged and counted, then swallowed — Record returns nil
//     and the caller answers success, per the availability tradeoff.
func (s *ClickService) Record(ctx context.Context, slug, payloadReferrer, headerReferrer string) error {
	p, err := s.Store.FindProductBySlug(ctx, s.DB, slug)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	referrer := sysutil.FirstNonEmpty(payloadReferrer, headerReferrer)

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	if err := s.Store.AppendClickEvent(ctx, s.DB, p.ID, referrer, now); err != nil {
		badgeClicks.WithLabelValues("failed").Inc()
		log.Error().Err(err).
			Str("product_id", p.ID).
			Str("slug", slug).
			Msg("click event append failed")
		return nil
	}

	badgeClicks.WithLabelValues("recorded").Inc()
	return nil
}
