// Package services – domain metrics.
//
// Prometheus collectors for badge-specific outcomes. HTTP-level traffic
// metrics live in the middleware package; the collectors here answer product
// questions (how many renders per outcome, are click writes failing) rather
// than transport questions.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// badgeRenders counts badge image requests by terminal outcome
	// (rendered, invalid_slug, not_found, ...). Label values come from
	// badge.Outcome.String(), which is a small fixed set.
	badgeRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_renders_total",
			Help: "Total badge image requests by terminal outcome.",
		},
		[]string{"outcome"},
	)

	// badgeClicks counts click-recording attempts. "recorded" and "failed"
	// distinguish successful appends from swallowed write failures, which is
	// the operator-visible signal required for the best-effort click path.
	badgeClicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_clicks_total",
			Help: "Total badge click recording attempts by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(badgeRenders, badgeClicks)
}
