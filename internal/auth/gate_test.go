package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"marina/pkg/logger"
	"marina/pkg/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "a-long-enough-test-secret"

var john = model.Identity{ID: "665f1c2e9b1e8a3d4c5b6a70", Email: "john@example.com", Username: "john"}

func newTestGate(revoker Revoker) (*Gate, *time.Time) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := NewGate(testSecret, revoker, logger.Discard())
	g.now = func() time.Time { return clock }
	return g, &clock
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	g, _ := newTestGate(nil)

	token, err := g.Issue(john)
	require.NoError(t, err)

	claims, err := g.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, john, claims.User)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, TokenLifetime, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestVerify_ExpiresAfterLifetime(t *testing.T) {
	g, clock := newTestGate(nil)
	token, err := g.Issue(john)
	require.NoError(t, err)

	*clock = clock.Add(23 * time.Hour)
	_, err = g.Verify(context.Background(), token)
	assert.NoError(t, err)

	*clock = clock.Add(time.Hour + time.Second)
	_, err = g.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerify_Failures(t *testing.T) {
	g, _ := newTestGate(nil)
	token, err := g.Issue(john)
	require.NoError(t, err)

	other := NewGate("another-secret-of-some-length", nil, logger.Discard())
	other.now = g.now
	foreign, err := other.Issue(john)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{User: john}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name       string
		credential string
		want       error
	}{
		{"garbage", "not-a-token", ErrMalformed},
		{"empty", "", ErrMalformed},
		{"other secret", foreign, ErrSignatureInvalid},
		{"tampered signature", tampered, ErrSignatureInvalid},
		{"alg none", unsigned, ErrSignatureInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Verify(context.Background(), tt.credential)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVerify_MissingUserIsMalformed(t *testing.T) {
	g, clock := newTestGate(nil)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(clock.Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = g.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestRevoke_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	g, _ := newTestGate(NewRevoker(client, logger.Discard()))
	ctx := context.Background()

	token, err := g.Issue(john)
	require.NoError(t, err)
	claims, err := g.Verify(ctx, token)
	require.NoError(t, err)

	require.NoError(t, g.Revoke(ctx, claims))
	_, err = g.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrRevoked)

	ttl := mr.TTL(revokedKeyPrefix + claims.ID)
	assert.Equal(t, TokenLifetime, ttl)

	mr.FastForward(TokenLifetime + time.Second)
	assert.False(t, mr.Exists(revokedKeyPrefix+claims.ID))
}

func TestVerify_RevocationStoreDownFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	g, _ := newTestGate(NewRevoker(client, logger.Discard()))
	token, err := g.Issue(john)
	require.NoError(t, err)

	mr.Close()
	claims, err := g.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, john.Email, claims.User.Email)
}

func TestNewRevoker_NilClientIsNoop(t *testing.T) {
	r := NewRevoker(nil, logger.Discard())
	assert.IsType(t, NoopRevoker{}, r)

	revoked, err := r.IsRevoked(context.Background(), "anything")
	assert.NoError(t, err)
	assert.False(t, revoked)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(4)

	hash, err := h.Hash("123456")
	require.NoError(t, err)
	assert.NotEqual(t, "123456", hash)
	assert.True(t, Authenticate("123456", hash))
	assert.False(t, Authenticate("1234567", hash))
	assert.False(t, Authenticate("123456", ""))

	_, err = h.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
