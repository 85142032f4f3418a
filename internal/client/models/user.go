// Package models defines the wire and domain types used by the MedCare
// client: the authenticated user profile, auth payloads, and the content
// returned by the diagnostics API.
package models

import "time"

// User is the profile of an authenticated account as returned by the
// backend. Its presence alone means nothing; it is only trusted alongside a
// non-expired credential token.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	IsVerified     bool      `json:"is_verified"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
}

// AuthResult is the payload of a successful login, signup, or federated
// sign-in: the bearer token and the profile it belongs to.
type AuthResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	User        *User  `json:"user"`
}
