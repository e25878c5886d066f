package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrMisconfigured = errors.New("server not configured")
	ErrBadRequest    = errors.New("bad request")

	// ErrSubscriptionGone marks a delivery failure the push transport
	// reported as permanent; the broadcaster evicts the endpoint.
	ErrSubscriptionGone = errors.New("subscription gone")

	// ErrUnsupported marks an absent client capability. Absence is not a
	// failure: callers disable the feature silently.
	ErrUnsupported = errors.New("push not supported")

	// ErrPermissionDenied is returned when the user declines the
	// notification permission prompt.
	ErrPermissionDenied = errors.New("notification permission denied")
)
