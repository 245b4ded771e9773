package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/edufeedback/backend/internal/policy"
	"github.com/edufeedback/backend/internal/response"
	"github.com/edufeedback/backend/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	// ContextKeyClaims is the Gin context key for JWT claims.
	ContextKeyClaims = "claims"
)

// TokenValidator verifies a bearer token. Implemented by service.AuthService.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenStr string) (*service.Claims, error)
}

// Authenticate resolves the caller from the Authorization header, or the
// ?token= query for WebSocket upgrades. A request without a token continues
// anonymously and the route's policy decides. When enforce is false an
// unusable token is ignored instead of rejected.
func Authenticate(auth TokenValidator, enforce bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			c.Next()
			return
		}

		claims, err := auth.ValidateToken(c.Request.Context(), tokenStr)
		if err != nil {
			if !enforce {
				c.Next()
				return
			}
			if errors.Is(err, service.ErrSessionRevoked) {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionRevoked)
				return
			}
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetIdentity returns the authenticated caller, or nil when anonymous.
func GetIdentity(c *gin.Context) *policy.Identity {
	claims := GetClaims(c)
	if claims == nil {
		return nil
	}
	return &policy.Identity{UserID: claims.UserID, Role: claims.Role}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	// Browsers cannot set headers on a WebSocket handshake.
	return c.Query("token")
}
