// Package services – EntitlementService
//
// This file implements the entitlement resolver: given a product slug, it
// loads the product row and derives the owning user's effective tier from
// their active subscription. The resolver performs no caching of its own —
// cache hits short-circuit at the HTTP edge before this code runs, so every
// invocation that reaches it is computed fresh against current store state.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/launchboard/badge-service/internal/domain"
	"github.com/launchboard/badge-service/internal/repo"
)

// EntitlementStore defines the repository contract required by
// EntitlementService. Implementations are responsible for the product and
// subscription read queries.
type EntitlementStore interface {
	// FindProductBySlug fetches a product by its unique slug.
	FindProductBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Product, error)

	// ActiveSubscriptionTier returns the user's currently entitled tier,
	// defaulting to free when no active subscription exists.
	ActiveSubscriptionTier(ctx context.Context, db *gorm.DB, userID string, now time.Time) (domain.Tier, error)
}

// EntitlementService resolves a slug into the derived Entitlement view used
// by the gating pipeline and the badge data endpoint.
//
// The service imposes an explicit timeout around the store reads so a slow
// database fails closed into the server-error outcome instead of hanging a
// public image request.
type EntitlementService struct {
	// DB is the GORM handle used for all lookups.
	DB *gorm.DB
	// Store is the repository used by this service.
	Store EntitlementStore
	// Timeout bounds the combined store reads per Resolve call.
	Timeout time.Duration
	// Now supplies the clock; overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

// NewEntitlementService constructs an EntitlementService with the given
// lookup timeout.
func NewEntitlementService(db *gorm.DB, store EntitlementStore, timeout time.Duration) *EntitlementService {
	return &EntitlementService{DB: db, Store: store, Timeout: timeout, Now: time.Now}
}

// Resolve looks up the product for slug and derives the owner's tier.
//
// Semantics:
//   - A missing product yields ErrProductNotFound.
//   - The tier comes from the owner's active subscription; no row means
//     free. Unknown plan names also degrade to free.
//   - Publication state and tier gating are reported, not enforced; the
//     caller decides what to do with an unpublished product or a free tier.
//
// Errors other than ErrProductNotFound (including context deadline expiry)
// are store faults and map to the server-error outcome upstream.
func (s *EntitlementService) Resolve(ctx context.Context, slug string) (*domain.Entitlement, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	p, err := s.Store.FindProductBySlug(ctx, s.DB, slug)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	tier, err := s.Store.ActiveSubscriptionTier(ctx, s.DB, p.OwnerUserID, now)
	if err != nil {
		return nil, err
	}

	return &domain.Entitlement{
		ProductID:    p.ID,
		ProductName:  p.Name,
		ProductSlug:  p.Slug,
		UpvotesCount: p.UpvotesCount,
		UserTier:     tier,
		IsPublished:  p.IsPublished,
		IsOwner:      false,
	}, nil
}
