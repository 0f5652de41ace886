// Package middleware provides the gin middleware chain: authentication,
// request identity and observability.
package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sentrasec/sentra/internal/application/dto"
	"github.com/sentrasec/sentra/internal/application/service"
	"github.com/sentrasec/sentra/internal/config"
	"github.com/sentrasec/sentra/pkg/constants"
	"github.com/sentrasec/sentra/pkg/errors"
	"github.com/sentrasec/sentra/pkg/logger"
)

// extractBearer pulls the token out of an Authorization header.
func extractBearer(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// RequireJWT verifies the inbound bearer token and stores the caller's
// identity on the request context. Tokens carry sub (user), org and role
// claims issued by the identity service.
func RequireJWT(cfg *config.AuthConfig, log logger.Logger) gin.HandlerFunc {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	}

	return func(c *gin.Context) {
		tokenStr := extractBearer(c.Request.Header.Get("Authorization"))
		if tokenStr == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		options := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
		if cfg.Issuer != "" {
			options = append(options, jwt.WithIssuer(cfg.Issuer))
		}
		token, err := jwt.Parse(tokenStr, keyFunc, options...)
		if err != nil || !token.Valid {
			log.Warn(c.Request.Context(), "JWT verification failed", logger.Error(err))
			abortUnauthorized(c, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "invalid token claims")
			return
		}

		caller, err := callerFromClaims(claims)
		if err != nil {
			log.Warn(c.Request.Context(), "Rejecting token with malformed identity claims", logger.Error(err))
			abortUnauthorized(c, "invalid identity claims")
			return
		}

		SetCaller(c, caller)
		c.Next()
	}
}

func callerFromClaims(claims jwt.MapClaims) (service.Caller, error) {
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return service.Caller{}, fmt.Errorf("sub claim: %w", err)
	}

	org, _ := claims["org"].(string)
	orgID, err := uuid.Parse(org)
	if err != nil {
		return service.Caller{}, fmt.Errorf("org claim: %w", err)
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = string(constants.RoleEmployee)
	}

	return service.Caller{
		OrganizationID: orgID,
		UserID:         userID,
		Role:           constants.Role(role),
	}, nil
}

// SetCaller stores the caller on both the gin context and the request
// context, so handlers and the logger see the same identity.
func SetCaller(c *gin.Context, caller service.Caller) {
	c.Set(string(constants.ContextKeyUserID), caller.UserID.String())
	c.Set(string(constants.ContextKeyOrgID), caller.OrganizationID.String())
	c.Set(string(constants.ContextKeyRole), string(caller.Role))

	ctx := c.Request.Context()
	ctx = context.WithValue(ctx, constants.ContextKeyUserID, caller.UserID.String())
	ctx = context.WithValue(ctx, constants.ContextKeyOrgID, caller.OrganizationID.String())
	ctx = context.WithValue(ctx, constants.ContextKeyRole, string(caller.Role))
	c.Request = c.Request.WithContext(ctx)
}

// CallerFrom reads the authenticated caller back out of the gin context.
func CallerFrom(c *gin.Context) (service.Caller, bool) {
	userStr, ok := c.Get(string(constants.ContextKeyUserID))
	if !ok {
		return service.Caller{}, false
	}
	orgStr, ok := c.Get(string(constants.ContextKeyOrgID))
	if !ok {
		return service.Caller{}, false
	}
	roleStr, _ := c.Get(string(constants.ContextKeyRole))

	userID, err := uuid.Parse(userStr.(string))
	if err != nil {
		return service.Caller{}, false
	}
	orgID, err := uuid.Parse(orgStr.(string))
	if err != nil {
		return service.Caller{}, false
	}

	role, _ := roleStr.(string)
	return service.Caller{
		OrganizationID: orgID,
		UserID:         userID,
		Role:           constants.Role(role),
	}, true
}

// RequireElevated rejects callers without an analyst or admin role. It must
// run after RequireJWT.
func RequireElevated() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			abortUnauthorized(c, "missing caller identity")
			return
		}
		if !caller.Role.IsElevated() {
			dto.SendError(c, errors.ErrForbidden("this operation requires an elevated role"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	dto.SendError(c, errors.ErrUnauthorized(message))
	c.Abort()
}
