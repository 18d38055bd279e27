package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"

	"github.com/linkgenetic/linkid-resolver/internal/config"
	"github.com/linkgenetic/linkid-resolver/jwt"
)

var tracer = otel.Tracer("auth")

// AuthService verifies mutation credentials and yields the issuer
// principal. The engine itself never sees credentials, only the
// verified principal string.
type AuthService struct {
	config config.Auth
}

func NewAuthService(config config.Auth) *AuthService {
	return &AuthService{config: config}
}

type AuthResult struct {
	Issuer string
	Method string // "jwt" or "apikey"
}

// AuthJWT validates a bearer token and returns the issuer claim as
// the principal.
func (s *AuthService) AuthJWT(ctx context.Context, token string) (*AuthResult, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.AuthJWT")
	defer span.End()

	_, claims, err := jwt.Validate(token, s.config.JWTSecret)
	if err != nil {
		span.RecordError(errors.Wrap(err, "jwt validation failed"))
		return nil, err
	}

	if s.config.Audience != "" && claims.Audience != s.config.Audience {
		err := fmt.Errorf("jwt audience mismatch: expected %s, got %s", s.config.Audience, claims.Audience)
		span.RecordError(err)
		return nil, err
	}

	if claims.Issuer == "" {
		err := fmt.Errorf("jwt has no issuer claim")
		span.RecordError(err)
		return nil, err
	}

	return &AuthResult{Issuer: claims.Issuer, Method: "jwt"}, nil
}

// AuthAPIKey compares a presented key against the configured bcrypt
// hashes and returns the key's registered issuer.
func (s *AuthService) AuthAPIKey(ctx context.Context, key string) (*AuthResult, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.AuthAPIKey")
	defer span.End()

	for _, entry := range s.config.APIKeys {
		if err := bcrypt.CompareHashAndPassword([]byte(entry.Hash), []byte(key)); err == nil {
			return &AuthResult{Issuer: entry.Issuer, Method: "apikey"}, nil
		}
	}

	err := fmt.Errorf("unknown api key")
	span.RecordError(err)
	return nil, err
}
