package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marina/pkg/logger"
	"marina/pkg/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const TokenLifetime = 24 * time.Hour

var (
	ErrExpired          = errors.New("credential expired")
	ErrMalformed        = errors.New("credential malformed")
	ErrSignatureInvalid = errors.New("credential signature invalid")
	ErrRevoked          = errors.New("credential revoked")
)

// Claims is the payload of an issued credential.
type Claims struct {
	User model.Identity `json:"user"`
	jwt.RegisteredClaims
}

// Remaining is the lifetime left on the credential at the given instant.
func (c *Claims) Remaining(at time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(at)
}

// Gate issues and verifies HS256 credentials signed with a shared secret.
type Gate struct {
	secret   []byte
	lifetime time.Duration
	revoker  Revoker
	now      func() time.Time
	log      *logger.Logger
}

func NewGate(secret string, revoker Revoker, log *logger.Logger) *Gate {
	if revoker == nil {
		revoker = NoopRevoker{}
	}
	return &Gate{
		secret:   []byte(secret),
		lifetime: TokenLifetime,
		revoker:  revoker,
		now:      time.Now,
		log:      log,
	}
}

func (g *Gate) Issue(identity model.Identity) (string, error) {
	now := g.now()
	claims := &Claims{
		User: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.lifetime)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign credential: %w", err)
	}
	return token, nil
}

func (g *Gate) Verify(ctx context.Context, credential string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(credential, claims, g.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		default:
			return nil, ErrMalformed
		}
	}
	if claims.User.Email == "" {
		return nil, ErrMalformed
	}

	if claims.ID != "" {
		revoked, err := g.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			// Revocation store outages do not lock every caller out.
			g.log.Warn("Failed to check credential revocation", "error", err)
		} else if revoked {
			return nil, ErrRevoked
		}
	}

	return claims, nil
}

// Revoke blocks the credential for the rest of its lifetime.
func (g *Gate) Revoke(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	remaining := claims.Remaining(g.now())
	if remaining <= 0 {
		return nil
	}
	if err := g.revoker.Revoke(ctx, claims.ID, remaining); err != nil {
		return fmt.Errorf("failed to revoke credential: %w", err)
	}
	return nil
}

func (g *Gate) key(token *jwt.Token) (any, error) {
	return g.secret, nil
}
