// Package router models the client's navigable views and gates access to
// the protected ones. It is deliberately independent of any rendering: the
// CLI (or any other frontend) asks it where the user is allowed to go.
package router

const (
	PathHome     = "/"
	PathLogin    = "/login"
	PathSignup   = "/signup"
	PathNews     = "/news"
	PathAbout    = "/about"
	PathContact  = "/contact"
	PathAskDoc   = "/askdoc"
	PathReport   = "/report"
	PathRays     = "/rays"
	PathAnalysis = "/analysis"
)

// protected lists the views that require an authenticated session.
var protected = map[string]bool{
	PathReport:   true,
	PathRays:     true,
	PathAnalysis: true,
}

var known = map[string]bool{
	PathHome:     true,
	PathLogin:    true,
	PathSignup:   true,
	PathNews:     true,
	PathAbout:    true,
	PathContact:  true,
	PathAskDoc:   true,
	PathReport:   true,
	PathRays:     true,
	PathAnalysis: true,
}

// Known reports whether path is a navigable view.
func Known(path string) bool {
	return known[path]
}

// Protected reports whether path requires authentication.
func Protected(path string) bool {
	return protected[path]
}
