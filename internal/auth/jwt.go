// Package auth provides JWT issuance/validation and password hashing
// for the marketplace API.
//
// Clients authenticate with email+password once, receive a signed JWT,
// and send it on every request as "Authorization: Bearer <token>". The
// token is stateless: the user id lives in the "sub" claim, the
// signature proves it wasn't tampered with, and no session storage is
// needed on the server.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "pixel-market"

// tokenLifetime matches the web client's working-session expectations:
// long enough to draw and trade for an evening, short enough that a
// leaked token goes stale within a day.
const tokenLifetime = 8 * time.Hour

// TokenService signs and verifies the HS256 access tokens. The same
// secret is used for both; it must be at least 16 characters and should
// be 32+ bytes of randomness in production.
type TokenService struct {
	secret []byte
}

func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type claims struct {
	Handle string `json:"handle,omitempty"`
	jwt.RegisteredClaims
}

// Generate creates a signed access token for the given user. The handle
// rides along as a private claim so clients can display it without an
// extra profile fetch.
func (s *TokenService) Generate(userID, handle string) (string, error) {
	now := time.Now()

	c := claims{
		Handle: handle,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token string and returns the user id
// from its subject claim. Pinning the accepted methods to HS256 blocks
// algorithm-confusion tokens; the issuer check blocks tokens minted by
// other apps sharing the secret.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}
	return c.Subject, nil
}
