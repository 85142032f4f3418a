package router

import "github.com/medcareai/medcare-client/internal/client/session"

// DecisionKind is the outcome of an access check.
type DecisionKind int

const (
	// DecisionPending means the session is still bootstrapping; render a
	// neutral waiting state, neither allowing nor redirecting.
	DecisionPending DecisionKind = iota

	// DecisionAllow renders the requested view.
	DecisionAllow

	// DecisionRedirect sends the user to the login view, remembering the
	// attempted destination.
	DecisionRedirect
)

// Decision is the guard's verdict for one requested path.
type Decision struct {
	Kind DecisionKind

	// From is the attempted destination, set on DecisionRedirect so the
	// login flow can return the user there after success.
	From string
}

// Decide gates a requested destination against the current session. Public
// paths are always allowed. For protected paths: pending while the session
// is loading, allowed iff a user is present, otherwise a redirect to login
// carrying the attempted path.
func Decide(s session.Session, path string) Decision {
	if !Protected(path) {
		return Decision{Kind: DecisionAllow}
	}
	if s.Loading {
		return Decision{Kind: DecisionPending}
	}
	if s.Authenticated() {
		return Decision{Kind: DecisionAllow}
	}
	return Decision{Kind: DecisionRedirect, From: path}
}
