package httpapi

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/launchboard/badge-service/internal/config"
	"github.com/launchboard/badge-service/internal/domain"
	"github.com/launchboard/badge-service/internal/repo"
)

func testConfig() config.Config {
	return config.Config{
		Port:    "8080",
		GinMode: gin.TestMode,
		Badge: config.BadgeConfig{
			CacheTTL:           86400,
			CacheSWR:           604800,
			EntitlementTimeout: time.Second,
		},
		RateRPS:   100,
		RateBurst: 100,
		OTEL:      config.OTELConfig{ServiceName: "badge-service"},
	}
}

// newTestServer wires the full router over a throwaway SQLite database.
func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	r := gin.New()
	RegisterRoutes(r, db, testConfig())
	return r, db
}

func seedPaidProduct(t *testing.T, db *gorm.DB, slug string, tier domain.Tier) {
	t.Helper()
	owner := "owner-" + slug
	if err := db.Create(&domain.Product{
		ID:           uuid.NewString(),
		Name:         "Product " + slug,
		Slug:         slug,
		UpvotesCount: 42,
		IsPublished:  true,
		OwnerUserID:  owner,
	}).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if err := db.Create(&domain.Subscription{
		ID:               uuid.NewString(),
		UserID:           owner,
		Plan:             tier,
		Status:           domain.SubscriptionStatusActive,
		CurrentPeriodEnd: time.Now().Add(30 * 24 * time.Hour),
	}).Error; err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	r, _ := newTestServer(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("metrics output missing http counters")
	}
}

func TestRouter_BadgeEndToEnd(t *testing.T) {
	r, db := newTestServer(t)
	seedPaidProduct(t, db, "my-app", domain.TierPro)

	t.Run("published pro product renders", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/badge/my-app", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d; body=%s", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Header().Get("Content-Type"), "image/svg+xml") {
			t.Fatalf("content type = %q", w.Header().Get("Content-Type"))
		}
		if !strings.Contains(w.Header().Get("Cache-Control"), "s-maxage=86400") {
			t.Fatalf("cache-control = %q", w.Header().Get("Cache-Control"))
		}
		if w.Header().Get("X-Request-ID") == "" {
			t.Fatalf("missing request id header")
		}
		if !strings.Contains(w.Body.String(), "42 upvotes") {
			t.Fatalf("badge body missing upvotes: %s", w.Body.String())
		}
	})

	t.Run("unknown product serves an error badge", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/badge/ghost", nil))

		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d", w.Code)
		}
		if !strings.Contains(w.Header().Get("Content-Type"), "image/svg+xml") {
			t.Fatalf("image path answered non-SVG: %q", w.Header().Get("Content-Type"))
		}
		if w.Header().Get("Cache-Control") != "public, max-age=300" {
			t.Fatalf("cache-control = %q", w.Header().Get("Cache-Control"))
		}
	})

	t.Run("data endpoint returns entitlement JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/badge/my-app/data", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d; body=%s", w.Code, w.Body.String())
		}
		body := w.Body.String()
		if !strings.Contains(body, `"productSlug":"my-app"`) || !strings.Contains(body, `"userTier":"pro"`) {
			t.Fatalf("unexpected body: %s", body)
		}
	})

	t.Run("click endpoint records and acknowledges", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/badge/my-app/click", strings.NewReader(`{"referrer":"https://example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":true`) {
			t.Fatalf("click: %d %s", w.Code, w.Body.String())
		}

		var count int64
		if err := db.Model(&domain.ClickEvent{}).Count(&count).Error; err != nil {
			t.Fatalf("count clicks: %v", err)
		}
		if count != 1 {
			t.Fatalf("click events = %d; want 1", count)
		}
	})
}

func TestRouter_Fallbacks(t *testing.T) {
	r, _ := newTestServer(t)

	t.Run("unknown route answers structured JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
		if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "not_found") {
			t.Fatalf("noroute: %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("wrong method answers 405", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/badge/my-app", nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Fatalf("nomethod: %d", w.Code)
		}
	})
}

func TestRouter_FreeTierBlocked(t *testing.T) {
	r, db := newTestServer(t)
	// Published product whose owner has no subscription at all.
	if err := db.Create(&domain.Product{
		ID:          uuid.NewString(),
		Name:        "Free App",
		Slug:        "free-app",
		IsPublished: true,
		OwnerUserID: "free-owner",
	}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/badge/free-app", nil))

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d; want 403", w.Code)
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("cache-control = %q; want no-store", w.Header().Get("Cache-Control"))
	}
	if !strings.Contains(w.Body.String(), "UPGRADE_REQUIRED") {
		t.Fatalf("expected upgrade badge: %s", w.Body.String())
	}
}
