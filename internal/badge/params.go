// Package badge implements the pure core of the embeddable badge pipeline:
// request validation, deterministic SVG composition, and the outcome-driven
// cache-control policy. Nothing in this package performs I/O, reads the
// clock, or uses randomness; identical inputs always produce identical
// outputs, which is what makes edge caching of rendered badges sound.
package badge

import (
	"errors"
	"net/url"
	"regexp"
)

// Validation errors returned by ParseSlug / ParseParams. Handlers map them to
// HTTP 400 with the matching error badge.
var (
	// ErrInvalidSlug is returned for empty, overlong, or ill-charset slugs.
	ErrInvalidSlug = errors.New("invalid product slug")

	// ErrInvalidParams is returned when a query parameter is outside its
	// enumeration.
	ErrInvalidParams = errors.New("invalid badge parameters")
)

// Variant selects the badge's visual presentation. The effective variant is
// clamped by the owner's tier before composition.
type Variant string

const (
	VariantPro     Variant = "pro"
	VariantProPlus Variant = "pro-plus"
)

// Size selects one of three fixed pixel presets.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// Theme selects the color scheme. ThemeAuto defers the light/dark decision to
// the client via a media query embedded in the SVG itself, so one cached
// document serves both schemes.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

// Defaults applied when a query parameter is absent.
const (
	DefaultVariant = VariantPro
	DefaultSize    = SizeMedium
	DefaultTheme   = ThemeAuto
	DefaultLive    = false
)

// MaxSlugLen is the maximum accepted slug length in bytes (the slug charset
// is ASCII, so bytes and characters coincide).
const MaxSlugLen = 100

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// ParseSlug validates a product slug: non-empty, at most MaxSlugLen
// characters, charset [A-Za-z0-9-]. No normalization is applied; the slug is
// part of a public URL and must match the stored value exactly.
func ParseSlug(raw string) (string, error) {
	if raw == "" || len(raw) > MaxSlugLen || !slugPattern.MatchString(raw) {
		return "", ErrInvalidSlug
	}
	return raw, nil
}

// Request is a fully validated badge request. Invalid input never reaches
// the compositor; construct values only via ParseRequest/ParseParams.
type Request struct {
	Slug    string
	Variant Variant
	Size    Size
	Theme   Theme
	// Live bypasses edge caching for the rendered badge (no-store).
	Live bool
}

// ParseParams validates badge query parameters against their enumerations,
// applying defaults for absent values first. An out-of-enumeration value
// (including an unparsable live flag) fails with ErrInvalidParams.
//
// The check is pure: no I/O and no inspection beyond the four known keys.
func ParseParams(q url.Values) (Request, error) {
	req := Request{
		Variant: DefaultVariant,
		Size:    DefaultSize,
		Theme:   DefaultTheme,
		Live:    DefaultLive,
	}

	if v := q.Get("variant"); v != "" {
		switch Variant(v) {
		case VariantPro, VariantProPlus:
			req.Variant = Variant(v)
		default:
			return Request{}, ErrInvalidParams
		}
	}
	if v := q.Get("size"); v != "" {
		switch Size(v) {
		case SizeSmall, SizeMedium, SizeLarge:
			req.Size = Size(v)
		default:
			return Request{}, ErrInvalidParams
		}
	}
	if v := q.Get("theme"); v != "" {
		switch Theme(v) {
		case ThemeLight, ThemeDark, ThemeAuto:
			req.Theme = Theme(v)
		default:
			return Request{}, ErrInvalidParams
		}
	}
	if v := q.Get("live"); v != "" {
		switch v {
		case "true", "1":
			req.Live = true
		case "false", "0":
			req.Live = false
		default:
			return Request{}, ErrInvalidParams
		}
	}

	return req, nil
}

// ParseRequest validates the slug and query parameters together and returns
// the assembled Request. Slug errors take precedence over parameter errors,
// matching the gating order (slug syntax is checked first).
func ParseRequest(slug string, q url.Values) (Request, error) {
	s, err := ParseSlug(slug)
	if err != nil {
		return Request{}, err
	}
	req, err := ParseParams(q)
	if err != nil {
		return Request{}, err
	}
	req.Slug = s
	return req, nil
}
