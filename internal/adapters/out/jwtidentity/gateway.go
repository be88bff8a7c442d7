// Package jwtidentity resolves HS256 bearer tokens into actors.
package jwtidentity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tracking/internal/core/domain/model/actor"
	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/ports"
	"tracking/internal/pkg/errs"

	"github.com/golang-jwt/jwt/v5"
)

var signingMethod = jwt.SigningMethodHS256

var _ ports.IdentityGateway = &Gateway{}

// Claims is the access token payload.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Gateway struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// New returns a gateway validating tokens signed with secret. An empty
// issuer disables the issuer check.
func New(secret, issuer string) (*Gateway, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Gateway{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Authenticate validates token and returns the actor it names. Every
// failure is Unauthenticated.
func (g *Gateway) Authenticate(_ context.Context, token string) (actor.Actor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return actor.Actor{}, errs.NewUnauthenticatedError(errors.New("token is missing"))
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(g.now),
		jwt.WithExpirationRequired(),
	}
	if g.issuer != "" {
		opts = append(opts, jwt.WithIssuer(g.issuer))
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, g.key, opts...); err != nil {
		return actor.Actor{}, errs.NewUnauthenticatedError(err)
	}

	subject := claims.UserID
	if subject == "" {
		subject = claims.Subject
	}
	id, err := kernel.ParseID(subject)
	if err != nil {
		return actor.Actor{}, errs.NewUnauthenticatedError(err)
	}
	role, err := actor.ParseRole(claims.Role)
	if err != nil {
		return actor.Actor{}, errs.NewUnauthenticatedError(err)
	}

	return actor.Actor{ID: id, Role: role}, nil
}

// Mint signs an access token for a. It backs local tooling and tests;
// login flows live elsewhere.
func (g *Gateway) Mint(a actor.Actor, ttl time.Duration) (string, error) {
	if err := a.Role.Validate(); err != nil {
		return "", err
	}
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}

	now := g.now()
	claims := Claims{
		UserID: a.ID.String(),
		Role:   a.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID.String(),
			Issuer:    g.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

func (g *Gateway) key(token *jwt.Token) (any, error) {
	if token.Method != signingMethod {
		return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
	}
	return g.secret, nil
}
