package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned by TokenExpiry when the token carries no exp claim.
var ErrNoExpiry = errors.New("token has no expiration claim")

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The upstream signs its tokens with a key we never see, so the claim is
// only a hint used to avoid a request that is bound to fail.
//
// Returns an error if the token is not a JWT or has no exp claim.
func TokenExpiry(tokenString string) (time.Time, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("error parsing token: %w", err)
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("error reading exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}

	return exp.Time, nil
}

// TokenExpired reports whether the token's exp claim is at or before
// now+leeway. Opaque tokens and tokens without exp are never considered
// expired: only the upstream can reject them.
func TokenExpired(tokenString string, now time.Time, leeway time.Duration) bool {
	exp, err := TokenExpiry(tokenString)
	if err != nil {
		return false
	}
	return !exp.After(now.Add(leeway))
}
