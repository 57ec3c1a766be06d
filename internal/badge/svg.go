// SVG compositor.
//
// This file turns a validated badge request plus entitlement data into a
// self-contained SVG document. Composition is a pure function: the output is
// byte-identical for identical inputs, there are no clock reads and no
// randomness, and every failure condition has its own visually distinct
// error badge so an <img> consumer never sees a broken image.
package badge

import (
	"fmt"
	"html"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Version identifies the badge document format. It is echoed in the
// X-Badge-Version response header and should be bumped whenever the rendered
// output changes shape, so embedders can cache-bust deliberately.
const Version = "1"

// ContentType is the media type for all badge responses, success or error.
const ContentType = "image/svg+xml; charset=utf-8"

// Render is the input to Compose. Variant must already be clamped to the
// owner's tier; the compositor renders exactly what it is told.
type Render struct {
	Variant      Variant
	Size         Size
	Theme        Theme
	UpvotesCount int
	ProductName  string
	ProductSlug  string
}

// ErrorKind enumerates the failure badges. The string values are rendered
// into the document (as a data attribute and small-print code) so failure
// modes are distinguishable in the wild.
type ErrorKind string

const (
	KindInvalidSlug  ErrorKind = "INVALID_SLUG"
	KindNotFound     ErrorKind = "PRODUCT_NOT_FOUND"
	KindNotPublished ErrorKind = "PRODUCT_NOT_PUBLISHED"
	KindUpgrade      ErrorKind = "UPGRADE_REQUIRED"
	KindServerError  ErrorKind = "SERVER_ERROR"
)

// label returns the human-readable text shown on the error badge.
func (k ErrorKind) label() string {
	switch k {
	case KindInvalidSlug:
		return "invalid badge URL"
	case KindNotFound:
		return "product not found"
	case KindNotPublished:
		return "product not published"
	case KindUpgrade:
		return "upgrade to show this badge"
	default:
		return "badge unavailable"
	}
}

// dims are the fixed layout constants for one size preset. Pixel dimensions
// are part of the public contract; changing them requires a Version bump.
type dims struct {
	W, H      int
	Radius    int
	PadX      int
	NameSize  int
	MetaSize  int
	NameY     int
	MetaY     int
	MaxRunes  int // name truncation threshold
	ArrowSize int
}

var sizeDims = map[Size]dims{
	SizeSmall:  {W: 180, H: 40, Radius: 6, PadX: 10, NameSize: 11, MetaSize: 9, NameY: 17, MetaY: 31, MaxRunes: 18, ArrowSize: 8},
	SizeMedium: {W: 220, H: 48, Radius: 8, PadX: 12, NameSize: 13, MetaSize: 10, NameY: 20, MetaY: 37, MaxRunes: 22, ArrowSize: 10},
	SizeLarge:  {W: 280, H: 56, Radius: 10, PadX: 14, NameSize: 15, MetaSize: 11, NameY: 24, MetaY: 43, MaxRunes: 28, ArrowSize: 12},
}

// Dimensions returns the pixel width and height for a size preset.
func Dimensions(s Size) (w, h int) {
	d := sizeDims[s]
	return d.W, d.H
}

const fontStack = `-apple-system,'Segoe UI',Roboto,Helvetica,Arial,sans-serif`

// Palettes. The accent is shared; pro-plus swaps it for a gradient.
const (
	lightBG     = "#ffffff"
	lightBorder = "#e4e4e7"
	lightName   = "#18181b"
	lightMeta   = "#71717a"
	darkBG      = "#18181b"
	darkBorder  = "#3f3f46"
	darkName    = "#fafafa"
	darkMeta    = "#a1a1aa"
	accent      = "#f97316"
	accentPlus  = "#db2777"
	grayAccent  = "#9ca3af"
)

// upvotePrinter formats counts with grouped thousands separators. The
// language tag is fixed so the output is deterministic and cache-stable.
var upvotePrinter = message.NewPrinter(language.English)

// FormatUpvotes renders an upvote count for display, e.g. 12345 -> "12,345".
// Negative inputs clamp to zero; the count is an external denormalized value
// and must never break rendering.
func FormatUpvotes(n int) string {
	if n < 0 {
		n = 0
	}
	return upvotePrinter.Sprintf("%d", n)
}

// Compose renders the success badge for the given, already-clamped inputs.
func Compose(r Render) []byte {
	d := sizeDims[r.Size]
	name := truncateName(r.ProductName, d.MaxRunes)
	votes := FormatUpvotes(r.UpvotesCount)
	aria := fmt.Sprintf("%s on Launchboard: %s upvotes", name, votes)

	var b strings.Builder
	b.Grow(2048)
	openSVG(&b, d, r.Theme, string(r.Variant), aria)

	if r.Variant == VariantProPlus {
		// Gradient accent is the visual differentiator of the top tier.
		fmt.Fprintf(&b,
			`<defs><linearGradient id="plus" x1="0" y1="0" x2="1" y2="1">`+
				`<stop offset="0" stop-color="%s"/><stop offset="1" stop-color="%s"/>`+
				`</linearGradient></defs>`, accent, accentPlus)
	}

	writeFrame(&b, d, r.Variant == VariantProPlus)
	writeArrow(&b, d, arrowFill(r.Variant))

	textX := d.PadX + d.ArrowSize + d.PadX/2 + 6
	fmt.Fprintf(&b,
		`<text class="name" x="%d" y="%d" font-family="%s" font-size="%d" font-weight="600">%s</text>`,
		textX, d.NameY, fontStack, d.NameSize, html.EscapeString(name))
	fmt.Fprintf(&b,
		`<text class="meta" x="%d" y="%d" font-family="%s" font-size="%d">%s upvotes · launchboard.dev/p/%s</text>`,
		textX, d.MetaY, fontStack, d.MetaSize, votes, html.EscapeString(r.ProductSlug))

	b.WriteString(`</svg>`)
	return []byte(b.String())
}

// ComposeError renders the failure badge for the given kind at the given
// size. Error badges use a muted palette and carry both a human label and
// the machine-readable kind code.
func ComposeError(kind ErrorKind, size Size) []byte {
	d, ok := sizeDims[size]
	if !ok {
		d = sizeDims[DefaultSize]
	}

	var b strings.Builder
	b.Grow(1024)
	openSVG(&b, d, ThemeAuto, "error:"+string(kind), "Launchboard badge: "+kind.label())

	writeFrame(&b, d, false)
	writeArrow(&b, d, grayAccent)

	textX := d.PadX + d.ArrowSize + d.PadX/2 + 6
	fmt.Fprintf(&b,
		`<text class="name" x="%d" y="%d" font-family="%s" font-size="%d" font-weight="600">%s</text>`,
		textX, d.NameY, fontStack, d.NameSize, kind.label())
	fmt.Fprintf(&b,
		`<text class="meta" x="%d" y="%d" font-family="%s" font-size="%d">launchboard.dev · %s</text>`,
		textX, d.MetaY, fontStack, d.MetaSize, string(kind))

	b.WriteString(`</svg>`)
	return []byte(b.String())
}

// openSVG writes the document preamble: root element, accessible title, and
// the theme style block.
func openSVG(b *strings.Builder, d dims, theme Theme, badgeAttr, aria string) {
	fmt.Fprintf(b,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" role="img" aria-label="%s" data-badge="%s">`,
		d.W, d.H, d.W, d.H, html.EscapeString(aria), html.EscapeString(badgeAttr))
	fmt.Fprintf(b, `<title>%s</title>`, html.EscapeString(aria))
	writeStyle(b, theme)
}

// writeStyle emits the palette for the requested theme. For ThemeAuto the
// light palette is the base and a prefers-color-scheme media query switches
// to dark entirely client-side; the server never picks a scheme, which keeps
// the document cacheable across both client themes.
func writeStyle(b *strings.Builder, theme Theme) {
	b.WriteString(`<style>`)
	switch theme {
	case ThemeDark:
		fmt.Fprintf(b, `.bg{fill:%s;stroke:%s}.name{fill:%s}.meta{fill:%s}`,
			darkBG, darkBorder, darkName, darkMeta)
	case ThemeLight:
		fmt.Fprintf(b, `.bg{fill:%s;stroke:%s}.name{fill:%s}.meta{fill:%s}`,
			lightBG, lightBorder, lightName, lightMeta)
	default: // ThemeAuto
		fmt.Fprintf(b, `.bg{fill:%s;stroke:%s}.name{fill:%s}.meta{fill:%s}`,
			lightBG, lightBorder, lightName, lightMeta)
		fmt.Fprintf(b, `@media (prefers-color-scheme: dark){.bg{fill:%s;stroke:%s}.name{fill:%s}.meta{fill:%s}}`,
			darkBG, darkBorder, darkName, darkMeta)
	}
	b.WriteString(`</style>`)
}

// writeFrame draws the rounded background card. The pro-plus frame is
// stroked with the gradient defined by Compose.
func writeFrame(b *strings.Builder, d dims, plus bool) {
	if plus {
		fmt.Fprintf(b,
			`<rect class="bg" x="0.5" y="0.5" rx="%d" width="%d" height="%d" stroke="url(#plus)" stroke-width="1.5"/>`,
			d.Radius, d.W-1, d.H-1)
		return
	}
	fmt.Fprintf(b,
		`<rect class="bg" x="0.5" y="0.5" rx="%d" width="%d" height="%d" stroke-width="1"/>`,
		d.Radius, d.W-1, d.H-1)
}

// writeArrow draws the upvote triangle on the left edge, vertically centered.
func writeArrow(b *strings.Builder, d dims, fill string) {
	x := d.PadX
	cy := d.H / 2
	s := d.ArrowSize
	// Triangle: apex up.
	fmt.Fprintf(b,
		`<path fill="%s" d="M%d %dL%d %dL%d %dZ"/>`,
		fill, x+s/2, cy-s/2, x+s, cy+s/2, x, cy+s/2)
}

func arrowFill(v Variant) string {
	if v == VariantProPlus {
		return "url(#plus)"
	}
	return accent
}

// truncateName clips a product name to max runes, appending an ellipsis when
// clipped. Truncation keeps long names from overflowing the fixed-width card.
func truncateName(name string, max int) string {
	runes := []rune(name)
	if len(runes) <= max {
		return name
	}
	return string(runes[:max-1]) + "…"
}
