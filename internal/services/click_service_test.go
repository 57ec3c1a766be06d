package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/launchboard/badge-service/internal/domain"
	"github.com/launchboard/badge-service/internal/repo"
)

// stubClickStore implements ClickStore and records the last append call.
type stubClickStore struct {
	findFn    func(slug string) (*domain.Product, error)
	appendErr error

	gotProductID string
	gotReferrer  string
	gotTS        time.Time
	appended     bool
}

func (s *stubClickStore) FindProductBySlug(_ context.Context, _ *gorm.DB, slug string) (*domain.Product, error) {
	return s.findFn(slug)
}

func (s *stubClickStore) AppendClickEvent(_ context.Context, _ *gorm.DB, productID, referrer string, ts time.Time) error {
	s.appended = true
	s.gotProductID = productID
	s.gotReferrer = referrer
	s.gotTS = ts
	return s.appendErr
}

func clickProduct() *domain.Product {
	return &domain.Product{ID: "p-1", Slug: "my-app", IsPublished: true, OwnerUserID: "u-1"}
}

func TestClickService_Record(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	newSvc := func(store *stubClickStore) *ClickService {
		svc := NewClickService(nil, store)
		svc.Now = func() time.Time { return fixed }
		return svc
	}

	t.Run("records with payload referrer preferred", func(t *testing.T) {
		store := &stubClickStore{findFn: func(string) (*domain.Product, error) { return clickProduct(), nil }}
		svc := newSvc(store)

		if err := svc.Record(ctx, "my-app", "https://payload.example", "https://header.example"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if store.gotProductID != "p-1" {
			t.Fatalf("product id = %q", store.gotProductID)
		}
		if store.gotReferrer != "https://payload.example" {
			t.Fatalf("referrer = %q; payload must win over header", store.gotReferrer)
		}
		if !store.gotTS.Equal(fixed) {
			t.Fatalf("timestamp = %v; want injected clock value", store.gotTS)
		}
	})

	t.Run("falls back to header referrer", func(t *testing.T) {
		store := &stubClickStore{findFn: func(string) (*domain.Product, error) { return clickProduct(), nil }}
		svc := newSvc(store)

		if err := svc.Record(ctx, "my-app", "", "https://header.example"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if store.gotReferrer != "https://header.example" {
			t.Fatalf("referrer = %q; want header fallback", store.gotReferrer)
		}
	})

	t.Run("both referrers empty is fine", func(t *testing.T) {
		store := &stubClickStore{findFn: func(string) (*domain.Product, error) { return clickProduct(), nil }}
		svc := newSvc(store)

		if err := svc.Record(ctx, "my-app", "", ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !store.appended || store.gotReferrer != "" {
			t.Fatalf("appended=%v referrer=%q; want append with empty referrer", store.appended, store.gotReferrer)
		}
	})

	t.Run("unknown slug maps to ErrProductNotFound", func(t *testing.T) {
		store := &stubClickStore{findFn: func(string) (*domain.Product, error) { return nil, repo.ErrNotFound }}
		svc := newSvc(store)

		err := svc.Record(ctx, "ghost", "", "")
		if !errors.Is(err, ErrProductNotFound) {
			t.Fatalf("err = %v; want ErrProductNotFound", err)
		}
		if store.appended {
			t.Fatalf("append must not run for an unknown slug")
		}
	})

	t.Run("lookup fault propagates", func(t *testing.T) {
		boom := errors.New("db down")
		store := &stubClickStore{findFn: func(string) (*domain.Product, error) { return nil, boom }}
		svc := newSvc(store)

		if err := svc.Record(ctx, "my-app", "", ""); !errors.Is(err, boom) {
			t.Fatalf("err = %v; want store fault", err)
		}
	})

	t.Run("append failure is swallowed", func(t *testing.T) {
		store := &stubClickStore{
			findFn:    func(string) (*domain.Product, error) { return clickProduct(), nil },
			appendErr: errors.New("disk full"),
		}
		svc := newSvc(store)

		if err := svc.Record(ctx, "my-app", "", ""); err != nil {
			t.Fatalf("append failures must be swallowed; got %v", err)
		}
	})
}
