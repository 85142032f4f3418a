package session

import "github.com/medcareai/medcare-client/internal/client/models"

// State is the lifecycle of the session service. It moves Uninitialized ->
// Loading -> Resolved and never returns to Loading within one process; only
// a fresh start bootstraps again.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateResolved
)

// Session is the client's current belief about authentication, derived from
// cached and/or freshly fetched data. User != nil implies a credential was
// present and not locally expired when the snapshot was derived.
type Session struct {
	User    *models.User
	Loading bool
	Err     string
}

// Authenticated reports whether the snapshot carries a signed-in user.
func (s Session) Authenticated() bool {
	return s.User != nil
}
