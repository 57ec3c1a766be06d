// Package services implements the business logic of the badge pipeline:
// entitlement resolution, tier gating, badge rendering, and click recording.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into HTTP statuses (or error badges) is performed at the handler layer.
package services

import "errors"

var (
	// ErrProductNotFound indicates that no product exists for the requested
	// slug.
	ErrProductNotFound = errors.New("product not found")

	// ErrProductNotPublished indicates the product exists but is not
	// published; unpublished products never render a badge.
	ErrProductNotPublished = errors.New("product not published")

	// ErrUpgradeRequired indicates the owning user is on the free tier,
	// which has no badge entitlement.
	ErrUpgradeRequired = errors.New("upgrade required")
)
