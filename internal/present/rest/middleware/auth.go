package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/linkgenetic/linkid-resolver/internal/domain"
	"github.com/linkgenetic/linkid-resolver/internal/service"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	auth *service.AuthService
}

func NewAuthMiddleware(auth *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// IdentifyIssuer resolves the request's credentials (Bearer JWT or
// X-API-Key) into an issuer principal and stores it in the request
// context. Requests without valid credentials pass through without a
// principal; mutation handlers reject those themselves.
func (s *AuthMiddleware) IdentifyIssuer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyIssuer")
		defer span.End()

		authHeader := c.Request().Header.Get("authorization")
		apiKey := c.Request().Header.Get("x-api-key")

		if authHeader != "" {
			split := strings.Split(authHeader, " ")
			if len(split) != 2 {
				span.RecordError(fmt.Errorf("invalid authentication header"))
				goto skipCheckAuthorization
			}

			authType, token := split[0], split[1]
			if authType != "Bearer" {
				span.RecordError(fmt.Errorf("only Bearer is acceptable"))
				goto skipCheckAuthorization
			}

			result, err := s.auth.AuthJWT(ctx, token)
			if err != nil {
				span.RecordError(errors.Wrap(err, "AuthMiddleware.IdentifyIssuer: AuthJWT failed"))
				goto skipCheckAuthorization
			}

			ctx = context.WithValue(ctx, domain.IssuerCtxKey, result.Issuer)
			ctx = context.WithValue(ctx, domain.AuthMethodCtxKey, result.Method)
			span.SetAttributes(attribute.String("Issuer", result.Issuer))

		} else if apiKey != "" {
			result, err := s.auth.AuthAPIKey(ctx, apiKey)
			if err != nil {
				span.RecordError(errors.Wrap(err, "AuthMiddleware.IdentifyIssuer: AuthAPIKey failed"))
				goto skipCheckAuthorization
			}

			ctx = context.WithValue(ctx, domain.IssuerCtxKey, result.Issuer)
			ctx = context.WithValue(ctx, domain.AuthMethodCtxKey, result.Method)
			span.SetAttributes(attribute.String("Issuer", result.Issuer))
		}

	skipCheckAuthorization:
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
