// Package token implements the offline freshness check for bearer tokens.
//
// The client never verifies the cryptographic signature — that is the
// server's job. It only decodes the claims segment to read the expiration
// claim, so a stale token can be discarded without a network round trip.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/medcareai/medcare-client/internal/common"
)

// now is a test seam for the clock.
var now = time.Now

var parser = jwt.NewParser()

// ExpiresAt decodes the token without signature verification and returns its
// expiration time. Malformed tokens and tokens without an exp claim yield
// common.ErrInvalidToken.
func ExpiresAt(tokenString string) (time.Time, error) {
	if tokenString == "" {
		return time.Time{}, common.ErrInvalidToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, common.ErrInvalidToken
	}

	return exp.Time, nil
}

// Validate distinguishes why a token is unusable: common.ErrInvalidToken for
// malformed or exp-less tokens, common.ErrTokenExpired for well-formed ones
// whose expiration has passed.
func Validate(tokenString string) error {
	exp, err := ExpiresAt(tokenString)
	if err != nil {
		return err
	}
	if !now().Before(exp) {
		return common.ErrTokenExpired
	}
	return nil
}

// IsValid reports whether the token carries an expiration claim in the
// future. It never returns an error and has no side effects, so it is safe
// to call on every render of the session. Malformed and empty tokens are
// simply invalid.
func IsValid(tokenString string) bool {
	return Validate(tokenString) == nil
}
