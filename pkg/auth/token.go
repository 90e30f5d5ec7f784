package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	"github.com/angelmondragon/clipstream-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// TokenSource yields the bearer token attached to calls to a private service.
type TokenSource interface {
	Token(ctx context.Context, audience string) (string, error)
}

// NewTokenSource picks the token source for the configured mode.
func NewTokenSource(cfg config.ServiceAuthConfig, gcp config.GCPConfig) (TokenSource, error) {
	if cfg.UsesIDToken() {
		return NewIDTokenSource(gcp), nil
	}
	return NewJWTSource(cfg)
}

// JWTSource mints short lived HS256 service tokens.
type JWTSource struct {
	cfg config.ServiceAuthConfig
	now func() time.Time
}

// NewJWTSource validates cfg and returns a JWT token source.
func NewJWTSource(cfg config.ServiceAuthConfig) (*JWTSource, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("service auth secret is required")
	}
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("service auth issuer is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("service auth ttl must be positive")
	}
	return &JWTSource{cfg: cfg, now: time.Now}, nil
}

// Token mints a token scoped to audience.
func (s *JWTSource) Token(_ context.Context, audience string) (string, error) {
	return MintServiceToken(s.cfg, s.now(), audience)
}

// MintServiceToken issues a signed JWT for audience valid for cfg.TTL.
func MintServiceToken(cfg config.ServiceAuthConfig, now time.Time, audience string) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("service auth secret is required")
	}
	audience = strings.TrimSpace(audience)
	if audience == "" {
		return "", fmt.Errorf("token audience is required")
	}

	claims := ServiceClaims{
		Service: cfg.Issuer,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseServiceToken validates tokenString for audience and returns its claims.
func ParseServiceToken(cfg config.ServiceAuthConfig, tokenString, audience string) (*ServiceClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("service auth secret is required")
	}

	claims := &ServiceClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(audience),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// IDTokenSource fetches Google-signed ID tokens, caching one source per audience.
type IDTokenSource struct {
	opts []option.ClientOption

	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
}

// NewIDTokenSource uses the configured credentials, falling back to the
// metadata server.
func NewIDTokenSource(gcp config.GCPConfig) *IDTokenSource {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	return &IDTokenSource{opts: opts, sources: make(map[string]oauth2.TokenSource)}
}

// Token returns an ID token whose audience is the target service URL.
func (s *IDTokenSource) Token(ctx context.Context, audience string) (string, error) {
	audience = strings.TrimSpace(audience)
	if audience == "" {
		return "", errors.New("token audience is required")
	}

	s.mu.Lock()
	src, ok := s.sources[audience]
	if !ok {
		created, err := idtoken.NewTokenSource(ctx, audience, s.opts...)
		if err != nil {
			s.mu.Unlock()
			return "", fmt.Errorf("creating id token source: %w", err)
		}
		src = created
		s.sources[audience] = src
	}
	s.mu.Unlock()

	tok, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("fetching id token: %w", err)
	}
	return tok.AccessToken, nil
}
