package router

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medcareai/medcare-client/internal/client/models"
	"github.com/medcareai/medcare-client/internal/client/session"
)

func authenticated() session.Session {
	return session.Session{User: &models.User{ID: 1, Email: "a@b.com"}}
}

func anonymous() session.Session {
	return session.Session{}
}

func loading() session.Session {
	return session.Session{Loading: true}
}

func TestDecide_PublicPathsAlwaysAllowed(t *testing.T) {
	for _, path := range []string{PathHome, PathNews, PathAbout, PathLogin} {
		for _, s := range []session.Session{authenticated(), anonymous(), loading()} {
			d := Decide(s, path)
			require.Equal(t, DecisionAllow, d.Kind, "path %s", path)
		}
	}
}

func TestDecide_ProtectedWhileLoadingIsPending(t *testing.T) {
	d := Decide(loading(), PathReport)
	require.Equal(t, DecisionPending, d.Kind)
}

func TestDecide_ProtectedAuthenticatedAllows(t *testing.T) {
	d := Decide(authenticated(), PathReport)
	require.Equal(t, DecisionAllow, d.Kind)
}

func TestDecide_ProtectedAnonymousRedirectsWithOrigin(t *testing.T) {
	d := Decide(anonymous(), PathAnalysis)
	require.Equal(t, DecisionRedirect, d.Kind)
	require.Equal(t, PathAnalysis, d.From)
}

func TestProtectedAndKnown(t *testing.T) {
	require.True(t, Protected(PathRays))
	require.False(t, Protected(PathNews))
	require.True(t, Known(PathHome))
	require.False(t, Known("/nope"))
}
