package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/launchboard/badge-service/internal/badge"
	"github.com/launchboard/badge-service/internal/domain"
	"github.com/launchboard/badge-service/internal/services"
)

//
// Stub services
//

type stubBadgeSvc struct {
	fn func(ctx context.Context, slug string, query url.Values) *services.RenderResult
}

func (s *stubBadgeSvc) Render(ctx context.Context, slug string, query url.Values) *services.RenderResult {
	return s.fn(ctx, slug, query)
}

type stubEntSvc struct {
	ent *domain.Entitlement
	err error
}

func (s *stubEntSvc) Resolve(_ context.Context, _ string) (*domain.Entitlement, error) {
	return s.ent, s.err
}

type stubClickSvc struct {
	err error

	gotSlug    string
	gotPayload string
	gotHeader  string
}

func (s *stubClickSvc) Record(_ context.Context, slug, payloadReferrer, headerReferrer string) error {
	s.gotSlug = slug
	s.gotPayload = payloadReferrer
	s.gotHeader = headerReferrer
	return s.err
}

const (
	testTTL = 86400
	testSWR = 604800
)

func newBadgeRouter(b BadgeRenderer, e EntitlementResolver, cl ClickRecorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(b, e, cl, testTTL, testSWR)
	r.GET("/badge/:slug", h.GetBadge)
	r.GET("/badge/:slug/data", h.GetBadgeData)
	r.POST("/badge/:slug/click", h.PostClick)
	return r
}

func renderedResult(variant badge.Variant, size badge.Size, live bool) *services.RenderResult {
	return &services.RenderResult{
		Outcome: badge.OutcomeRendered,
		Body: badge.Compose(badge.Render{
			Variant:      variant,
			Size:         size,
			Theme:        badge.ThemeAuto,
			UpvotesCount: 1234,
			ProductName:  "My App",
			ProductSlug:  "my-app",
		}),
		Variant: variant,
		Size:    size,
		Theme:   badge.ThemeAuto,
		Live:    live,
	}
}

func failedResult(o badge.Outcome, size badge.Size) *services.RenderResult {
	return &services.RenderResult{
		Outcome: o,
		Body:    badge.ComposeError(o.Kind(), size),
		Size:    size,
	}
}

//
// GET /badge/:slug
//

func TestGetBadge_SuccessHeaders(t *testing.T) {
	svc := &stubBadgeSvc{fn: func(_ context.Context, slug string, q url.Values) *services.RenderResult {
		if slug != "my-app" {
			t.Fatalf("slug = %q", slug)
		}
		if q.Get("variant") != "pro-plus" {
			t.Fatalf("query not forwarded: %v", q)
		}
		// Pro owner requesting pro-plus: the service clamps to pro.
		return renderedResult(badge.VariantPro, badge.SizeMedium, false)
	}}
	r := newBadgeRouter(svc, &stubEntSvc{}, &stubClickSvc{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/badge/my-app?variant=pro-plus", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != badge.ContentType {
		t.Fatalf("content type = %q; want %q", ct, badge.ContentType)
	}
	cc := w.Header().Get("Cache-Control")
	if !strings.Contains(cc, "max-age=86400") || !strings.Contains(cc, "s-maxage=86400") ||
		!strings.Contains(cc, "stale-while-revalidate=604800") {
		t.Fatalf("cache-control = %q", cc)
	}
	if w.Header().Get("X-Badge-Version") != badge.Version {
		t.Fatalf("missing badge version header")
	}
	if w.Header().Get("X-Badge-Variant") != "pro" || w.Header().Get("X-Badge-Size") != "medium" {
		t.Fatalf("informational headers wrong: variant=%q size=%q",
			w.Header().Get("X-Badge-Variant"), w.Header().Get("X-Badge-Size"))
	}
	if !strings.HasPrefix(w.Body.String(), "<svg") {
		t.Fatalf("body is not an SVG document")
	}
}

func TestGetBadge_FailureOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		outcome    badge.Outcome
		wantStatus int
		wantCache  string
	}{
		{"invalid slug", badge.OutcomeInvalidSlug, 400, "public, max-age=60"},
		{"not found", badge.OutcomeNotFound, 404, "public, max-age=300"},
		{"not published", badge.OutcomeNotPublished, 403, "no-store"},
		{"upgrade required", badge.OutcomeUpgradeRequired, 403, "no-store"},
		{"server error", badge.OutcomeServerError, 500, "no-store"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubBadgeSvc{fn: func(_ context.Context, _ string, _ url.Values) *services.RenderResult {
				return failedResult(tt.outcome, badge.DefaultSize)
			}}
			r := newBadgeRouter(svc, &stubEntSvc{}, &stubClickSvc{})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/badge/whatever", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d", w.Code, tt.wantStatus)
			}
			if cc := w.Header().Get("Cache-Control"); cc != tt.wantCache {
				t.Fatalf("cache-control = %q; want %q", cc, tt.wantCache)
			}
			// Failures never carry the informational variant/size headers.
			if w.Header().Get("X-Badge-Variant") != "" || w.Header().Get("X-Badge-Size") != "" {
				t.Fatalf("failure must not set variant/size headers")
			}
			if !strings.HasPrefix(w.Body.String(), "<svg") {
				t.Fatalf("every outcome must answer with an SVG document")
			}
		})
	}
}

func TestGetBadge_LiveBypassesCache(t *testing.T) {
	svc := &stubBadgeSvc{fn: func(_ context.Context, _ string, _ url.Values) *services.RenderResult {
		return renderedResult(badge.VariantPro, badge.SizeMedium, true)
	}}
	r := newBadgeRouter(svc, &stubEntSvc{}, &stubClickSvc{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/badge/my-app?live=true", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("cache-control = %q; want no-store for live renders", cc)
	}
}

func TestGetBadge_PanicServesErrorBadge(t *testing.T) {
	svc := &stubBadgeSvc{fn: func(_ context.Context, _ string, _ url.Values) *services.RenderResult {
		panic("render exploded")
	}}
	r := newBadgeRouter(svc, &stubEntSvc{}, &stubClickSvc{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/badge/my-app", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d; want 500", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != badge.ContentType {
		t.Fatalf("content type = %q; the image path must never answer JSON", ct)
	}
	if !strings.Contains(w.Body.String(), string(badge.KindServerError)) {
		t.Fatalf("expected server-error badge body")
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("cache-control = %q; want no-store", cc)
	}
}

//
// GET /badge/:slug/data
//

func TestGetBadgeData(t *testing.T) {
	ent := &domain.Entitlement{
		ProductID:    "p-1",
		ProductName:  "My App",
		ProductSlug:  "my-app",
		UpvotesCount: 1234,
		UserTier:     domain.TierPro,
		IsPublished:  true,
	}

	t.Run("success", func(t *testing.T) {
		r := newBadgeRouter(&stubBadgeSvc{}, &stubEntSvc{ent: ent}, &stubClickSvc{})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/badge/my-app/data", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200", w.Code)
		}
		var got domain.Entitlement
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if got != *ent {
			t.Fatalf("body = %+v; want %+v", got, *ent)
		}
		// camelCase contract for the preview tooling
		if !strings.Contains(w.Body.String(), `"productSlug"`) || !strings.Contains(w.Body.String(), `"userTier"`) {
			t.Fatalf("expected camelCase fields, got: %s", w.Body.String())
		}
		if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "max-age=86400") {
			t.Fatalf("cache-control = %q", cc)
		}
	})

	t.Run("invalid slug", func(t *testing.T) {
		r := newBadgeRouter(&stubBadgeSvc{}, &stubEntSvc{ent: ent}, &stubClickSvc{})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/badge/bad_slug!/data", nil))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d; want 400", w.Code)
		}
		if !strings.Contains(w.Body.String(), ErrCodeInvalidSlug) {
			t.Fatalf("expected %q code in body: %s", ErrCodeInvalidSlug, w.Body.String())
		}
	})

	t.Run("not found", func(t *testing.T) {
		r := newBadgeRouter(&stubBadgeSvc{}, &stubEntSvc{err: services.ErrProductNotFound}, &stubClickSvc{})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/badge/ghost/data", nil))

		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d; want 404", w.Code)
		}
	})

	t.Run("resolver fault", func(t *testing.T) {
		r := newBadgeRouter(&stubBadgeSvc{}, &stubEntSvc{err: errors.New("db down")}, &stubClickSvc{})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/badge/my-app/data", nil))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d; want 500", w.Code)
		}
	})
}

//
// POST /badge/:slug/click
//

func TestPostClick(t *testing.T) {
	t.Run("payload referrer forwarded alongside header", func(t *testing.T) {
		click := &stubClickSvc{}
		r := newBadgeRouter(&stubBadgeSvc{}, &stubEntSvc{}, click)

		body := bytes.NewBufferString(`{"referrer":"https://payload.example"}`)
		req := httptest.NewRequest(http.MethodPost, "/badge/my-app/click", body)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Referer", "https://header.example")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200; body=%s", w.Code, w.Body.String())
		}
		var resp ClickResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || !resp.Success {
			t.Fatalf("body = %s", w.Body.String())
		}
		if click.gotSlug != "my-app" {
			t.Fatalf("slug = %q", click.gotSlug)
		}
		if click.gotPayload != "https://payload.example" || click.gotHeader != "https://header.example" {
			t.Fatalf("referrers not forwarded: payload=%q header=%q", click.gotPayload, click.gotHeader)
		}
		if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
			t.Fatalf("cache-control = %q; want no-store", cc)
		}
	})

	t.Run("empty body is accepted", func(t *testing.T) {
		click := &stubClickSvc{}
		r := newBadgeRouter(&stubBadgeSvc{}, &stubEntSvc{}, click)

		req := httptest.NewRequest(http.MethodPost, "/badge/my-app/click", nil)
		req.Header.Set("Referer", "https://header.example")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200; body=%s", w.Code, w.Body.String())
		}
		if click.gotPayload != "" || click.gotHeader != "https://header.example" {
			t.Fatalf("referrers: payload=%q header=%q", click.gotPayload, click.gotHeader)
		}
	})

	t.Run("malformed json is rejected", func(t *testing.T) {
		r := newBadgeRouter(&stubBadgeSvc{}, &stubEntSvc{}, &stubClickSvc{})
		req := httptest.NewRequest(http.MethodPost, "/badge/my-app/click", bytes.NewBufferString(`{nope`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d; want 400", w.Code)
		}
	})

	t.Run("invalid slug", func(t *testing.T) {
		r := newBadgeRouter(&stubBadgeSvc{}, &stubEntSvc{}, &stubClickSvc{})
		req := httptest.NewRequest(http.MethodPost, "/badge/bad_slug!/click", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d; want 400", w.Code)
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		r := newBadgeRouter(&stubBadgeSvc{}, &stubEntSvc{}, &stubClickSvc{err: services.ErrProductNotFound})
		req := httptest.NewRequest(http.MethodPost, "/badge/ghost/click", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d; want 404", w.Code)
		}
	})

	t.Run("lookup fault", func(t *testing.T) {
		r := newBadgeRouter(&stubBadgeSvc{}, &stubEntSvc{}, &stubClickSvc{err: errors.New("db down")})
		req := httptest.NewRequest(http.MethodPost, "/badge/my-app/click", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d; want 500", w.Code)
		}
	})
}
