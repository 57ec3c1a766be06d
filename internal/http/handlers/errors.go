// Package handlers defines HTTP-layer error codes used by the JSON endpoints
// (badge data and click tracking). The image endpoint never returns these —
// it answers every outcome with an SVG document instead.
//
// Conventions:
//   - Codes are lowercase, snake_case, and stable; clients branch on them.
//   - Generic codes mirror common HTTP status semantics.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_found",
//	  "message": "product not found"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeInvalidSlug = "invalid_slug"
)
