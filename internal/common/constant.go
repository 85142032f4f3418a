// Package common contains shared constants and sentinel errors used across
// MedCare client components.
package common

const (
	// AuthTokenKey is the persisted-store key holding the bearer token.
	AuthTokenKey = "auth_token"

	// UserKey is the persisted-store key holding the serialized user profile.
	UserKey = "user"

	// AuthorizationHeader carries the bearer credential on outbound requests.
	AuthorizationHeader = "Authorization"

	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-Id"

	// SessionExpiredParam is the login-view query marker set when the server
	// rejected the session.
	SessionExpiredParam = "session_expired"
)
