package client

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims parses a JWT without verification. The backend verifies
// signatures; the client only reads timing claims.
func tokenClaims(token string) (jwt.MapClaims, bool) {
	if token == "" {
		return nil, false
	}

	parsed, _, err := new(jwt.Parser).ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, false
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	return claims, ok
}

// IssuedAt returns the iat claim of a JWT credential, or zero for opaque tokens
func IssuedAt(token string) time.Time {
	claims, ok := tokenClaims(token)
	if !ok {
		return time.Time{}
	}
	iat, err := claims.GetIssuedAt()
	if err != nil || iat == nil {
		return time.Time{}
	}
	return iat.Time
}

// ExpiresAt returns the exp claim of a JWT credential, or zero when unknown
func ExpiresAt(token string) time.Time {
	claims, ok := tokenClaims(token)
	if !ok {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// IsTokenExpired reports whether a JWT credential is past its exp claim.
// Tokens without an exp claim (or opaque tokens) are treated as not expired;
// the backend rejects them if they are actually invalid.
func IsTokenExpired(token string) bool {
	exp := ExpiresAt(token)
	if exp.IsZero() {
		return false
	}
	return time.Now().After(exp)
}
