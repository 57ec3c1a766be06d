// Package services – BadgeService
//
// This file implements the gating pipeline for a single badge request. The
// checks run in a fixed order so that cheap, purely local validation (slug
// and parameter syntax) happens before any store I/O, keeping malformed
// public traffic away from the database:
//
//	slug syntax → param syntax → entitlement lookup → published → tier → render
//
// Every path terminates in a badge.Outcome with an SVG body — success or a
// distinct error badge — so the HTTP boundary always has an image to serve
// to an <img> consumer.
package services

import (
	"context"
	"errors"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/launchboard/badge-service/internal/badge"
	"github.com/launchboard/badge-service/internal/domain"
)

// EntitlementResolver is the slice of EntitlementService the badge pipeline
// consumes. Kept abstract so handler and service tests can stub it.
type EntitlementResolver interface {
	Resolve(ctx context.Context, slug string) (*domain.Entitlement, error)
}

// RenderResult is the terminal state of one badge request: the outcome, the
// SVG body to serve, and the effective presentation parameters. Body is
// always non-nil; failures carry the matching error badge.
type RenderResult struct {
	Outcome badge.Outcome
	Body    []byte

	// Effective presentation; meaningful when Outcome is OutcomeRendered.
	Variant badge.Variant
	Size    badge.Size
	Theme   badge.Theme
	Live    bool
}

// BadgeService runs the gating state machine and composes the response
// image. It holds no mutable state and is safe for concurrent use.
type BadgeService struct {
	// Entitlements resolves slugs into product/tier views.
	Entitlements EntitlementResolver
}

// NewBadgeService constructs a BadgeService over the given resolver.
func NewBadgeService(ents EntitlementResolver) *BadgeService {
	return &BadgeService{Entitlements: ents}
}

// ClampVariant applies the tier rule to the requested variant:
//
//   - pro:      always the pro badge, regardless of what was requested. The
//     downgrade is silent so existing embeds keep working when a
//     pro-plus subscription lapses.
//   - pro_plus: the requested variant is honored as-is.
//
// Free-tier requests never reach clamping; they are rejected upstream.
func ClampVariant(tier domain.Tier, requested badge.Variant) badge.Variant {
	if tier == domain.TierProPlus {
		return requested
	}
	return badge.VariantPro
}

// Render executes the full pipeline for one badge request and never returns
// an error: unexpected faults are logged and folded into the SERVER_ERROR
// badge so the image endpoint stays total.
func (s *BadgeService) Render(ctx context.Context, slug string, query url.Values) *RenderResult {
	if _, err := badge.ParseSlug(slug); err != nil {
		return fail(badge.OutcomeInvalidSlug, badge.DefaultSize, false)
	}

	req, err := badge.ParseParams(query)
	if err != nil {
		return fail(badge.OutcomeInvalidParams, badge.DefaultSize, false)
	}
	req.Slug = slug

	ent, err := s.Entitlements.Resolve(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return fail(badge.OutcomeNotFound, req.Size, req.Live)
		}
		log.Error().Err(err).Str("slug", slug).Msg("entitlement lookup failed")
		return fail(badge.OutcomeServerError, req.Size, req.Live)
	}

	if !ent.IsPublished {
		return fail(badge.OutcomeNotPublished, req.Size, req.Live)
	}
	if ent.UserTier == domain.TierFree {
		return fail(badge.OutcomeUpgradeRequired, req.Size, req.Live)
	}

	effective := ClampVariant(ent.UserTier, req.Variant)
	body := badge.Compose(badge.Render{
		Variant:      effective,
		Size:         req.Size,
		Theme:        req.Theme,
		UpvotesCount: ent.UpvotesCount,
		ProductName:  ent.ProductName,
		ProductSlug:  ent.ProductSlug,
	})

	badgeRenders.WithLabelValues(badge.OutcomeRendered.String()).Inc()
	return &RenderResult{
		Outcome: badge.OutcomeRendered,
		Body:    body,
		Variant: effective,
		Size:    req.Size,
		Theme:   req.Theme,
		Live:    req.Live,
	}
}

// fail builds a failure result with the matching error badge at the given
// size, counting the outcome.
func fail(o badge.Outcome, size badge.Size, live bool) *RenderResult {
	badgeRenders.WithLabelValues(o.String()).Inc()
	return &RenderResult{
		Outcome: o,
		Body:    badge.ComposeError(o.Kind(), size),
		Size:    size,
		Live:    live,
	}
}
