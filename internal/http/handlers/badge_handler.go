// Badge HTTP handlers.
//
// This file exposes the public badge endpoints:
//   - GET  /badge/{slug}        (embeddable SVG image)
//   - GET  /badge/{slug}/data   (entitlement JSON for preview tooling)
//   - POST /badge/{slug}/click  (best-effort click analytics)
//
// Handlers are transport-thin: they delegate to application services and
// translate outcomes into HTTP responses. The image endpoint is special: it
// is consumed by <img> tags on third-party pages, so it answers every
// outcome — including panics — with an SVG document and the cache directive
// that matches the outcome, never a bare JSON error.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/launchboard/badge-service/internal/badge"
	"github.com/launchboard/badge-service/internal/domain"
	"github.com/launchboard/badge-service/internal/http/middleware"
	"github.com/launchboard/badge-service/internal/services"
)

//
// Service contracts (context-aware)
//

// BadgeRenderer runs the gating pipeline for one badge request.
//
// Implementations must be safe for concurrent use and total: every input
// terminates in a RenderResult carrying an SVG body.
type BadgeRenderer interface {
	// Render validates, resolves, gates, and composes the badge for slug.
	Render(ctx context.Context, slug string, query url.Values) *services.RenderResult
}

// EntitlementResolver resolves a slug into the derived entitlement view.
type EntitlementResolver interface {
	// Resolve fetches product and owner-tier state for slug.
	Resolve(ctx context.Context, slug string) (*domain.Entitlement, error)
}

// ClickRecorder appends click analytics for a product.
type ClickRecorder interface {
	// Record resolves slug and appends a click event; append failures are
	// swallowed by the implementation.
	Record(ctx context.Context, slug, payloadReferrer, headerReferrer string) error
}

//
// Handler wiring
//

// Handlers groups the badge HTTP endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	badgeSvc BadgeRenderer
	entSvc   EntitlementResolver
	clickSvc ClickRecorder

	// cacheTTL/cacheSWR are the externally configured constants (seconds)
	// applied to successful renders and data responses.
	cacheTTL int
	cacheSWR int
}

// New constructs a Handlers instance bound to the given services and cache
// constants.
func New(badgeSvc BadgeRenderer, entSvc EntitlementResolver, clickSvc ClickRecorder, cacheTTL, cacheSWR int) *Handlers {
	return &Handlers{
		badgeSvc: badgeSvc,
		entSvc:   entSvc,
		clickSvc: clickSvc,
		cacheTTL: cacheTTL,
		cacheSWR: cacheSWR,
	}
}

//
// DTOs
//

// ClickRequest is the optional JSON payload for the click endpoint. The
// payload referrer, when present, takes precedence over the Referer header.
type ClickRequest struct {
	// Referrer is the page carrying the embed, as reported by the embed script.
	Referrer string `json:"referrer,omitempty" example:"https://news.ycombinator.com/item?id=1"`
}

// ClickResponse acknowledges a click submission. Success is reported even
// when the analytics write failed upstream; a broken embed is never an
// acceptable cost for a lost click.
type ClickResponse struct {
	Success bool `json:"success" example:"true"`
}

//
// Endpoints
//

// GetBadge godoc
// @ID          getBadge
// @Summary     Render an embeddable product badge
// @Description Returns a cacheable SVG badge for a published product whose owner has an active paid subscription. Failures return a styled error badge with the matching status code.
// @Tags        Badge
// @Produce     image/svg+xml
//
// @Param       slug     path   string  true  "Product slug" example(my-app)
// @Param       variant  query  string  false "Badge variant"       Enums(pro, pro-plus)  default(pro)
// @Param       size     query  string  false "Badge size"          Enums(small, medium, large) default(medium)
// @Param       theme    query  string  false "Color theme"         Enums(light, dark, auto) default(auto)
// @Param       live     query  string  false "Bypass edge caching" Enums(true, false) default(false)
//
// @Success     200 {string} string "SVG document"
// @Failure     400 {string} string "Error badge (invalid slug or params)"
// @Failure     403 {string} string "Error badge (not published / upgrade required)"
// @Failure     404 {string} string "Error badge (product not found)"
// @Failure     500 {string} string "Error badge (server error)"
// @Router      /badge/{slug} [get]
func (h *Handlers) GetBadge(c *gin.Context) {
	// The image path must stay total even on panic: recover locally and
	// serve the SERVER_ERROR badge instead of letting the JSON recovery
	// middleware answer an <img> tag.
	defer func() {
		if rec := recover(); rec != nil {
			lg := middleware.LoggerFrom(c)
			lg.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("badge render panic")
			if !c.Writer.Written() {
				h.writeBadge(c, &services.RenderResult{
					Outcome: badge.OutcomeServerError,
					Body:    badge.ComposeError(badge.KindServerError, badge.DefaultSize),
				})
			}
			c.Abort()
		}
	}()

	res := h.badgeSvc.Render(c.Request.Context(), c.Param("slug"), c.Request.URL.Query())
	h.writeBadge(c, res)
}

// writeBadge emits a RenderResult: status from the outcome, cache directive
// from the policy engine, informational headers on success, SVG body always.
func (h *Handlers) writeBadge(c *gin.Context, res *services.RenderResult) {
	hdr := c.Writer.Header()
	hdr.Set("Cache-Control", badge.CacheControl(res.Outcome, res.Live, h.cacheTTL, h.cacheSWR))
	hdr.Set("X-Badge-Version", badge.Version)
	if res.Outcome == badge.OutcomeRendered {
		hdr.Set("X-Badge-Variant", string(res.Variant))
		hdr.Set("X-Badge-Size", string(res.Size))
	}
	c.Data(res.Outcome.Status(), badge.ContentType, res.Body)
}

// GetBadgeData godoc
// @ID          getBadgeData
// @Summary     Badge entitlement data
// @Description Returns the resolved entitlement for a product as JSON, for badge preview tooling.
// @Tags        Badge
// @Produce     json
//
// @Param       slug  path  string  true  "Product slug" example(my-app)
//
// @Success     200 {object} domain.Entitlement
// @Failure     400 {object} handlers.ErrorResponse "Invalid slug"
// @Failure     404 {object} handlers.ErrorResponse "Product not found"
// @Failure     500 {object} handlers.ErrorResponse "Internal server error"
// @Router      /badge/{slug}/data [get]
func (h *Handlers) GetBadgeData(c *gin.Context) {
	slug, err := badge.ParseSlug(c.Param("slug"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidSlug, "slug must be 1-100 characters of [A-Za-z0-9-]")
		return
	}

	ent, err := h.entSvc.Resolve(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "product not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "entitlement lookup failed")
		return
	}

	// Preview tooling tolerates the same staleness as the rendered badge.
	c.Header("Cache-Control",
		badge.CacheControl(badge.OutcomeRendered, false, h.cacheTTL, h.cacheSWR))
	ok(c, http.StatusOK, ent)
}

// PostClick godoc
// @ID          postBadgeClick
// @Summary     Record a badge click
// @Description Appends a best-effort analytics event for a badge click. The response reports success even when the write fails upstream.
// @Tags        Badge
// @Accept      json
// @Produce     json
//
// @Param       slug  path  string                 true  "Product slug" example(my-app)
// @Param       body  body  handlers.ClickRequest  false "Optional referrer payload"
//
// @Success     200 {object} handlers.ClickResponse
// @Failure     400 {object} handlers.ErrorResponse "Invalid slug"
// @Failure     404 {object} handlers.ErrorResponse "Product not found"
// @Failure     500 {object} handlers.ErrorResponse "Internal server error"
// @Router      /badge/{slug}/click [post]
func (h *Handlers) PostClick(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	slug, err := badge.ParseSlug(c.Param("slug"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidSlug, "slug must be 1-100 characters of [A-Za-z0-9-]")
		return
	}

	// Body is optional; a missing or empty body is fine, malformed JSON is not.
	var req ClickRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be JSON like {\"referrer\":\"...\"}")
			return
		}
	}

	err = h.clickSvc.Record(c.Request.Context(), slug, req.Referrer, c.Request.Referer())
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "product not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "click lookup failed")
		return
	}

	ok(c, http.StatusOK, ClickResponse{Success: true})
}
