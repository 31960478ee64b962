// Package auth provides the opaque token-signing and password-hashing
// primitives consumed by the session manager.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "Pulse"

// EmailTokenTTL bounds the lifetime of email-verification tokens.
const EmailTokenTTL = 24 * time.Hour

// Claims are the verified contents of a session token.
type Claims struct {
	UserID  uint
	Subject string
}

type tokenClaims struct {
	UserID uint `json:"userID"`
	jwt.RegisteredClaims
}

// TokenSigner signs and verifies HMAC session tokens. Tokens are
// tamper-evident and verifiable without a database round trip; revocation is
// the session store's job.
type TokenSigner struct {
	secret []byte
}

// NewTokenSigner returns a TokenSigner using the given shared secret.
func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{secret: []byte(secret)}
}

// Sign mints a session token binding the user ID and username. Session
// tokens carry no expiry; they die with their Session record. The token ID
// keeps two logins in the same second from minting identical tokens.
func (s *TokenSigner) Sign(userID uint, username string) (string, error) {
	claims := tokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Issuer:   issuer,
			Subject:  username,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// SignWithTTL mints an expiring token with an arbitrary subject, used for
// email verification links.
func (s *TokenSigner) SignWithTTL(userID uint, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the token signature and returns its claims.
func (s *TokenSigner) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return &Claims{UserID: claims.UserID, Subject: claims.Subject}, nil
}
