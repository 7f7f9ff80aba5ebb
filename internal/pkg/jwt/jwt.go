package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const defaultSecret = "askspace-secret-change-me"

var secret = []byte(defaultSecret)

// SetSecret configures the JWT signing secret (call on startup).
func SetSecret(s string) {
	if s != "" {
		secret = []byte(s)
	}
}

// Claims is the JWT payload. Kind distinguishes user tokens from admin
// capability tokens; Abilities carries the admin's role slugs.
type Claims struct {
	PrincipalID string   `json:"pid"`
	Kind        string   `json:"kind"`
	SessionID   string   `json:"sid,omitempty"`
	Abilities   []string `json:"abilities,omitempty"`
	jwtlib.RegisteredClaims
}

// SignOptions carries optional claim values for Sign.
type SignOptions struct {
	Kind      string
	SessionID string
	Abilities []string
}

// Sign creates a signed JWT for the given principal.
func Sign(principalID string, ttl time.Duration, opts SignOptions) (string, error) {
	claims := Claims{
		PrincipalID: principalID,
		Kind:        opts.Kind,
		SessionID:   opts.SessionID,
		Abilities:   opts.Abilities,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Parse validates a token string and returns the claims.
func Parse(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
