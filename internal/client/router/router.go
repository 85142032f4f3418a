package router

import (
	"sync"

	"github.com/medcareai/medcare-client/internal/client/session"
	"github.com/medcareai/medcare-client/internal/common"
)

// Router holds the current navigable location, the remembered origin for
// post-login return, and the session-expired marker carried onto the login
// view. It satisfies the gateway's Navigator interface.
type Router struct {
	mu             sync.Mutex
	current        string
	returnTo       string
	sessionExpired bool
}

func New() *Router {
	return &Router{current: PathHome}
}

// CurrentPath returns the path of the currently rendered view.
func (r *Router) CurrentPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Location returns the current path including the session-expired query
// marker when it is set, e.g. "/login?session_expired=1".
func (r *Router) Location() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == PathLogin && r.sessionExpired {
		return PathLogin + "?" + common.SessionExpiredParam + "=1"
	}
	return r.current
}

// Navigate applies the access guard to the requested path and moves there
// if allowed. On a redirect decision the attempted path is remembered so a
// later successful login can return to it.
func (r *Router) Navigate(path string, s session.Session) Decision {
	d := Decide(s, path)

	r.mu.Lock()
	defer r.mu.Unlock()

	switch d.Kind {
	case DecisionAllow:
		r.current = path
		if path != PathLogin {
			r.sessionExpired = false
		}
	case DecisionRedirect:
		r.returnTo = d.From
		r.current = PathLogin
	}
	return d
}

// RedirectToLogin is the gateway's invalidation redirect: move to the login
// view, remembering the view the user was on. sessionExpired selects the
// annotated "your session expired" login variant.
func (r *Router) RedirectToLogin(sessionExpired bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != PathLogin {
		r.returnTo = r.current
	}
	r.current = PathLogin
	r.sessionExpired = sessionExpired
}

// SessionExpired reports whether the login view should render its expired
// annotation.
func (r *Router) SessionExpired() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionExpired
}

// ReturnPath pops the remembered destination, defaulting to home. Called
// after a successful login.
func (r *Router) ReturnPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.returnTo
	r.returnTo = ""
	if p == "" {
		p = PathHome
	}
	return p
}
