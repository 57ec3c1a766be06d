// Outcome taxonomy and cache-control policy.
//
// Every badge request terminates in exactly one Outcome, and every Outcome
// maps to exactly one (status, Cache-Control) pair — the mapping is total so
// no state can fall through to an uncached or miscached response. Successful
// renders are cached aggressively at the edge (the dominant traffic is
// third-party embeds); entitlement-sensitive failures are never cached so a
// publish or upgrade is reflected immediately.
package badge

import "fmt"

// Outcome is the terminal state of a single badge request.
type Outcome int

const (
	OutcomeRendered Outcome = iota
	OutcomeInvalidSlug
	OutcomeInvalidParams
	OutcomeNotFound
	OutcomeNotPublished
	OutcomeUpgradeRequired
	OutcomeServerError
)

// String returns a stable lowercase name, used as a metrics label.
func (o Outcome) String() string {
	switch o {
	case OutcomeRendered:
		return "rendered"
	case OutcomeInvalidSlug:
		return "invalid_slug"
	case OutcomeInvalidParams:
		return "invalid_params"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeNotPublished:
		return "not_published"
	case OutcomeUpgradeRequired:
		return "upgrade_required"
	default:
		return "server_error"
	}
}

// Status returns the HTTP status code for the outcome.
func (o Outcome) Status() int {
	switch o {
	case OutcomeRendered:
		return 200
	case OutcomeInvalidSlug, OutcomeInvalidParams:
		return 400
	case OutcomeNotFound:
		return 404
	case OutcomeNotPublished, OutcomeUpgradeRequired:
		return 403
	default:
		return 500
	}
}

// Kind returns the error badge kind for a failure outcome. For
// OutcomeRendered it returns KindServerError as a defensive placeholder;
// callers never compose an error badge for a success.
func (o Outcome) Kind() ErrorKind {
	switch o {
	case OutcomeInvalidSlug, OutcomeInvalidParams:
		return KindInvalidSlug
	case OutcomeNotFound:
		return KindNotFound
	case OutcomeNotPublished:
		return KindNotPublished
	case OutcomeUpgradeRequired:
		return KindUpgrade
	default:
		return KindServerError
	}
}

// Fixed short/medium TTLs for failure caching, in seconds. Client-input
// errors are cached briefly to absorb retry storms from malformed embeds;
// absence is stable so not-found is cached a bit longer.
const (
	invalidTTL  = 60
	notFoundTTL = 300
)

// CacheControl returns the Cache-Control directive for an outcome.
//
//   - invalid slug / invalid params: public, max-age=60
//   - not found:                     public, max-age=300
//   - not published / upgrade:       no-store (entitlement can change any time)
//   - rendered, live=true:           no-store
//   - rendered, live=false:          public with ttl and a stale-while-revalidate
//     window (both externally configured, seconds)
//   - server error:                  no-store
func CacheControl(o Outcome, live bool, ttl, swr int) string {
	switch o {
	case OutcomeRendered:
		if live {
			return "no-store"
		}
		return fmt.Sprintf("public, max-age=%d, s-maxage=%d, stale-while-revalidate=%d", ttl, ttl, swr)
	case OutcomeInvalidSlug, OutcomeInvalidParams:
		return fmt.Sprintf("public, max-age=%d", invalidTTL)
	case OutcomeNotFound:
		return fmt.Sprintf("public, max-age=%d", notFoundTTL)
	default:
		// Not published, upgrade required, server error.
		return "no-store"
	}
}

// Outcomes lists every terminal outcome; exported for exhaustiveness checks
// in tests and for metrics label pre-registration.
var Outcomes = []Outcome{
	OutcomeRendered,
	OutcomeInvalidSlug,
	OutcomeInvalidParams,
	OutcomeNotFound,
	OutcomeNotPublished,
	OutcomeUpgradeRequired,
	OutcomeServerError,
}
