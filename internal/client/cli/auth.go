package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/medcareai/medcare-client/internal/client/api"
	"github.com/medcareai/medcare-client/internal/client/models"
	"github.com/medcareai/medcare-client/internal/client/router"
	"github.com/medcareai/medcare-client/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// printRequestError reports a gateway failure to the user in the most
// specific form available: the server's own message, a connectivity hint,
// or the raw error.
func printRequestError(err error) {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		fmt.Println(apiErr.Message)
		return
	}
	if errors.Is(err, common.ErrUnavailable) {
		fmt.Println("Server unavailable, please try again later.")
		return
	}
	fmt.Println(err.Error())
}

// Login prompts for email and password and authenticates against the
// backend. On success the (token, user) pair is persisted before the session
// flips authenticated, and the router returns to the view the user was
// heading for when the login was forced.
//
// The password byte slice is securely wiped before returning. A failed
// attempt leaves the user on the login flow with the server's message
// printed inline.
func (a *App) Login(ctx context.Context) error {
	if a.router.SessionExpired() {
		fmt.Println("Your session has expired. Please login again.")
	}

	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		printRequestError(err)
		return err
	}

	return a.finishAuth(ctx, res)
}

// Signup prompts for the new account's details and creates it. The backend
// returns the same token-and-user payload as login, so a successful signup
// leaves the user authenticated.
func (a *App) Signup(ctx context.Context) error {
	fullName, err := getSimpleText(a.reader, "Enter full name", os.Stdout)
	if err != nil {
		return err
	}

	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.client.Signup(ctx, fullName, email, string(password))
	if err != nil {
		printRequestError(err)
		return err
	}

	fmt.Println("Account created!")
	return a.finishAuth(ctx, res)
}

// Google signs in with a google identity credential (the ID token issued to
// the configured OAuth client).
func (a *App) Google(ctx context.Context) error {
	if a.config.GoogleClientID != "" {
		printlnFn("The credential must be issued to client " + a.config.GoogleClientID)
	}

	credential, err := getSimpleText(a.reader, "Paste google credential", os.Stdout)
	if err != nil {
		return err
	}

	res, err := a.client.GoogleAuth(ctx, credential)
	if err != nil {
		printRequestError(err)
		return err
	}

	return a.finishAuth(ctx, res)
}

// finishAuth persists the authentication result and navigates back to the
// remembered destination. Session state never reports success unless the
// credential pair was actually stored.
func (a *App) finishAuth(ctx context.Context, res *models.AuthResult) error {
	if err := a.session.Login(ctx, res.User, res.AccessToken); err != nil {
		fmt.Println(a.session.Current().Err)
		return err
	}

	dest := a.router.ReturnPath()
	a.router.Navigate(dest, a.session.Current())
	fmt.Printf("Logged in as %s\n", res.User.Email)
	return nil
}

// Logout ends the session: the server call is best-effort, local state is
// cleared unconditionally, and the router moves home.
func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	a.router.Navigate(router.PathHome, a.session.Current())
	fmt.Println("Logged out")
	return nil
}

// Whoami prints the resolved session state. It waits for the initial
// bootstrap so the answer reflects the cache-plus-refresh outcome, never the
// transient loading phase.
func (a *App) Whoami(ctx context.Context) error {
	if err := a.waitBooted(ctx); err != nil {
		return err
	}

	s := a.session.Current()
	if s.Err != "" {
		fmt.Println(s.Err)
	}
	if s.User == nil {
		fmt.Println("Not logged in")
		return nil
	}

	printProfile(s.User)
	return nil
}

// Refresh re-fetches the profile from the server for an authenticated
// session. A failed fetch keeps the current profile; the user stays logged
// in either way.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.waitBooted(ctx); err != nil {
		return err
	}

	u := a.session.RefreshUser(ctx)
	if u == nil {
		fmt.Println("Not logged in")
		return nil
	}

	printProfile(u)
	return nil
}

func printProfile(u *models.User) {
	fmt.Printf("%s <%s>\n", u.FullName, u.Email)
	if u.IsVerified {
		fmt.Println("verified: yes")
	} else {
		fmt.Println("verified: no")
	}
}
