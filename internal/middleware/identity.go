package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
	"github.com/classtrack/classtrack-api/pkg/response"
)

// ContextClaimsKey is the gin context key storing the verified identity claims.
const ContextClaimsKey = "identityClaims"

// ContextTeacherKey is the gin context key storing the teacher id (the token
// subject).
const ContextTeacherKey = "teacherID"

// Identity verifies the bearer token minted by the identity provider and
// stores its claims on the request context. The subject doubles as the
// teacher id for every downstream ownership check.
func Identity(secret, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := parseClaims(parts[1], secret, issuer)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, *claims)
		c.Set(ContextTeacherKey, claims.Subject)
		c.Next()
	}
}

func parseClaims(raw, secret, issuer string) (*models.IdentityClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &models.IdentityClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*models.IdentityClaims)
	if !ok || claims.Subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}
	return claims, nil
}

// TeacherID extracts the authenticated teacher id from the context.
func TeacherID(c *gin.Context) string {
	return c.GetString(ContextTeacherKey)
}

// Claims extracts the verified identity claims from the context.
func Claims(c *gin.Context) (models.IdentityClaims, bool) {
	value, ok := c.Get(ContextClaimsKey)
	if !ok {
		return models.IdentityClaims{}, false
	}
	claims, ok := value.(models.IdentityClaims)
	return claims, ok
}
