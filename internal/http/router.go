// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, compression, and rate limiting.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Embed-friendly posture: permissive CORS, compressed SVG, and cache
//     headers owned exclusively by the badge policy engine
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/launchboard/badge-service/internal/config"
	"github.com/launchboard/badge-service/internal/domain"
	"github.com/launchboard/badge-service/internal/http/handlers"
	"github.com/launchboard/badge-service/internal/http/middleware"
	"github.com/launchboard/badge-service/internal/repo"
	"github.com/launchboard/badge-service/internal/services"
)

// storeShim adapts the repository free functions to the store interfaces
// expected by the services. This keeps services decoupled from the concrete
// repo package while reusing the existing functions.
type storeShim struct{}

// FindProductBySlug proxies repo.FindProductBySlug.
func (storeShim) FindProductBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Product, error) {
	return repo.FindProductBySlug(ctx, db, slug)
}

// ActiveSubscriptionTier proxies repo.ActiveSubscriptionTier.
func (storeShim) ActiveSubscriptionTier(ctx context.Context, db *gorm.DB, userID string, now time.Time) (domain.Tier, error) {
	return repo.ActiveSubscriptionTier(ctx, db, userID, now)
}

// AppendClickEvent proxies repo.AppendClickEvent.
func (storeShim) AppendClickEvent(ctx context.Context, db *gorm.DB, productID, referrer string, ts time.Time) error {
	return repo.AppendClickEvent(ctx, db, productID, referrer, ts)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine: observability (tracing, metrics), rate limiting, CORS and security
// headers, health and metrics endpoints, and the public badge API.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger (JSON backstop; the image
//     handler recovers into an error badge before this runs)
//  5. Body size limiter (click payloads are tiny)
//  6. Metrics
//  7. Gzip (SVG compresses ~4x; CDN caches the encoded variant per
//     Accept-Encoding)
//  8. CORS and security headers
//
// The token-bucket rate limiter is mounted on the click endpoint only: image
// traffic is absorbed by the edge cache, and limiting it would break embeds
// on hot pages in live mode.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (64 KiB; the only body is the click payload)
	r.Use(limitBody(64 << 10))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compress responses
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 8) CORS posture: badges are embedded anywhere, so default to allow-all
	// unless an allowlist is configured.
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "X-Badge-Version", "X-Badge-Variant", "X-Badge-Size", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "X-Badge-Version", "X-Badge-Variant", "X-Badge-Size", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db
	entSvc := services.NewEntitlementService(db, storeShim{}, cfg.Badge.EntitlementTimeout)
	badgeSvc := services.NewBadgeService(entSvc)
	clickSvc := services.NewClickService(db, storeShim{})
	h := handlers.New(badgeSvc, entSvc, clickSvc, cfg.Badge.CacheTTL, cfg.Badge.CacheSWR)

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())

	// Public badge API
	b := r.Group("/badge")
	{
		b.GET("/:slug", h.GetBadge)
		b.GET("/:slug/data", h.GetBadgeData)
		b.POST("/:slug/click", rl.Handler(), h.PostClick)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
