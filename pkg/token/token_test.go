package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var issuedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestCodec(t *testing.T, now time.Time) *Codec {
	t.Helper()
	c, err := NewCodec(Config{Secret: []byte("test-secret")})
	require.NoError(t, err)
	return c.WithClock(func() time.Time { return now })
}

func TestNewCodecRequiresSecret(t *testing.T) {
	_, err := NewCodec(Config{})
	assert.Error(t, err)
}

func TestNewCodecDefaultTTL(t *testing.T) {
	c, err := NewCodec(Config{Secret: []byte("s")})
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, c.TTL())
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	for _, ttl := range []time.Duration{time.Second, time.Minute, 24 * time.Hour} {
		c := newTestCodec(t, issuedAt)

		raw, err := c.IssueWithTTL(42, "alice", ttl)
		require.NoError(t, err)

		claims, err := c.Verify(raw)
		require.NoError(t, err)
		assert.Equal(t, 42, claims.UserID)
		assert.Equal(t, "alice", claims.Username)
		assert.True(t, claims.ExpiresAtTime().Equal(issuedAt.Add(ttl)), "ttl %s", ttl)
	}
}

func TestVerifyExpiryBoundary(t *testing.T) {
	issuer := newTestCodec(t, issuedAt)
	raw, err := issuer.IssueWithTTL(7, "bob", time.Hour)
	require.NoError(t, err)

	expiry := issuedAt.Add(time.Hour)

	_, err = issuer.WithClock(func() time.Time { return expiry.Add(-time.Second) }).Verify(raw)
	assert.NoError(t, err, "one second before expiry must verify")

	_, err = issuer.WithClock(func() time.Time { return expiry.Add(time.Second) }).Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken, "after expiry must fail")
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	c := newTestCodec(t, issuedAt)
	valid, err := c.Issue(1, "alice")
	require.NoError(t, err)

	other, err := NewCodec(Config{Secret: []byte("other-secret")})
	require.NoError(t, err)
	foreign, err := other.WithClock(func() time.Time { return issuedAt }).Issue(1, "alice")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	cases := map[string]string{
		"empty":          "",
		"garbage":        "not.a.token",
		"other secret":   foreign,
		"alg none":       noneToken,
		"tampered":       tampered,
		"missing expiry": mustSign(t, Claims{UserID: 1, Username: "alice"}),
		"missing user":   mustSign(t, Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour))}}),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Verify(raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestIssueRejectsNonPositiveTTL(t *testing.T) {
	c := newTestCodec(t, issuedAt)
	_, err := c.IssueWithTTL(1, "alice", 0)
	assert.Error(t, err)
}

func mustSign(t *testing.T, claims Claims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}
