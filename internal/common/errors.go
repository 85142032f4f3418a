// Package common defines shared constants and sentinel errors used across
// the MedCare client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Store-level errors.
	ErrStorage = errors.New("storage failure")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")

	// Transport errors.
	ErrUnavailable = errors.New("server unavailable")

	// Auth errors (invalid, malformed, or stale token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
