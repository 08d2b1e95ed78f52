// Package token issues and verifies the HS256 JWTs used as bearer credentials.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// DefaultTTL is used when Config.TTL is not positive.
const DefaultTTL = 24 * time.Hour

// ErrInvalidToken covers every verification failure: malformed token, wrong
// algorithm, bad signature, missing claims and expiry.
var ErrInvalidToken = errors.New("invalid token")

// Config holds the signing secret shared by every instance that issues or
// verifies tokens.
type Config struct {
	Secret []byte
	TTL    time.Duration
}

// Claims is the identity carried by a token.
type Claims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// ExpiresAtTime returns the absolute expiry, or the zero time if unset.
func (c Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec builds a Codec. An empty secret is rejected.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{secret: cfg.Secret, ttl: ttl, now: time.Now}, nil
}

// WithClock returns a copy of the codec that reads time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// TTL reports the default lifetime of issued tokens.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for the user with the configured TTL.
func (c *Codec) Issue(userID int, username string) (string, error) {
	return c.IssueWithTTL(userID, username, c.ttl)
}

// IssueWithTTL signs a token that expires ttl from now.
func (c *Codec) IssueWithTTL(userID int, username string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	now := c.now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of raw and returns its claims.
// A token is rejected once now is after its expiry; there is no leeway.
func (c *Codec) Verify(raw string) (Claims, error) {
	var claims Claims
	// Expiry is checked below against the codec clock instead of jwt.TimeFunc.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	tok, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || claims.UserID <= 0 {
		return Claims{}, ErrInvalidToken
	}
	if c.now().After(claims.ExpiresAt.Time) {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
