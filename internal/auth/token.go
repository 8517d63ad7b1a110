// Package auth manages bearer tokens for the remote service: validating
// cached access tokens, persisting them on disk, and obtaining fresh
// ones from a renewable session token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	// ErrTokenExpired means the token decoded fine but its exp claim has passed
	ErrTokenExpired = errors.New("access token expired")
	// ErrTokenInvalid means the token could not be decoded as a JWT
	ErrTokenInvalid = errors.New("invalid access token")
	// ErrInsufficientCredentials means no usable login material was supplied
	ErrInsufficientCredentials = errors.New("insufficient login details provided")
)

// ValidateAccessToken validity-checks a bearer token by decoding its
// embedded expiry claim. The signature is NOT verified: the client never
// holds the service's signing key, and only needs to know whether the
// token is worth presenting.
func ValidateAccessToken(token string) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("%w: malformed exp claim", ErrTokenInvalid)
	}
	if exp != nil && exp.Before(time.Now()) {
		return ErrTokenExpired
	}

	return nil
}
