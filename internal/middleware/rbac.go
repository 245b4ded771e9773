package middleware

import (
	"errors"
	"net/http"

	"github.com/edufeedback/backend/internal/policy"
	"github.com/edufeedback/backend/internal/response"
	"github.com/gin-gonic/gin"
)

// RequireAdmin rejects callers that are not an authenticated admin.
func RequireAdmin(guard *policy.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := guard.Admin(GetIdentity(c)); err != nil {
			AbortPolicy(c, err)
			return
		}
		c.Next()
	}
}

// RequireAuthenticated rejects anonymous callers.
func RequireAuthenticated(guard *policy.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := guard.Authenticated(GetIdentity(c)); err != nil {
			AbortPolicy(c, err)
			return
		}
		c.Next()
	}
}

// AbortPolicy writes the status and code for a policy rejection.
func AbortPolicy(c *gin.Context, err error) {
	status, code := PolicyStatus(err)
	response.AbortFail(c, status, code)
}

// PolicyStatus maps a policy error to its HTTP status and error code.
func PolicyStatus(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, policy.ErrUnauthenticated):
		return http.StatusUnauthorized, response.ErrTokenRequired
	case errors.Is(err, policy.ErrAdminOnly):
		return http.StatusForbidden, response.ErrAdminAccessOnly
	case errors.Is(err, policy.ErrStudentOnly):
		return http.StatusForbidden, response.ErrStudentAccessOnly
	case errors.Is(err, policy.ErrLastAdmin):
		return http.StatusForbidden, response.ErrLastAdmin
	default:
		return http.StatusForbidden, response.ErrForbidden
	}
}
