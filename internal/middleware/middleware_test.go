package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/edufeedback/backend/internal/model"
	"github.com/edufeedback/backend/internal/policy"
	"github.com/edufeedback/backend/internal/response"
	"github.com/edufeedback/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator map[string]*service.Claims

func (s stubValidator) ValidateToken(_ context.Context, tokenStr string) (*service.Claims, error) {
	if tokenStr == "revoked" {
		return nil, service.ErrSessionRevoked
	}
	claims, ok := s[tokenStr]
	if !ok {
		return nil, errors.New("bad token")
	}
	return claims, nil
}

var tokens = stubValidator{
	"admin":   {UserID: 1, Role: model.RoleAdmin},
	"student": {UserID: 2, Role: model.RoleStudent},
}

func do(r http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func guardedRouter(enforce bool) *gin.Engine {
	guard := policy.NewGuard(enforce)
	r := gin.New()
	r.Use(Authenticate(tokens, enforce))
	r.GET("/admin", RequireAdmin(guard), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/me", RequireAuthenticated(guard), func(c *gin.Context) {
		id := GetIdentity(c)
		c.String(http.StatusOK, string(id.Role))
	})
	return r
}

func TestRequireAdminEnforced(t *testing.T) {
	r := guardedRouter(true)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/admin", bearer("admin")).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", bearer("student")).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin", bearer("garbage")).Code)
	assert.Contains(t, do(r, http.MethodGet, "/admin", bearer("revoked")).Body.String(), string(response.ErrSessionRevoked))
}

func TestTokenFromQuery(t *testing.T) {
	r := guardedRouter(true)

	w := do(r, http.MethodGet, "/me?token=student", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "student", w.Body.String())
}

func TestOpenModeWaivesIdentity(t *testing.T) {
	r := guardedRouter(false)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/admin", nil).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/admin", bearer("garbage")).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/admin", bearer("student")).Code)
}

func TestPolicyStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   response.ErrCode
	}{
		{policy.ErrUnauthenticated, http.StatusUnauthorized, response.ErrTokenRequired},
		{policy.ErrAdminOnly, http.StatusForbidden, response.ErrAdminAccessOnly},
		{policy.ErrStudentOnly, http.StatusForbidden, response.ErrStudentAccessOnly},
		{policy.ErrNotOwner, http.StatusForbidden, response.ErrForbidden},
		{policy.ErrLastAdmin, http.StatusForbidden, response.ErrLastAdmin},
	}
	for _, tt := range tests {
		status, code := PolicyStatus(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(ctx, 2, time.Minute)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/login", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/login", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/login", nil).Code)

	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/login", nil).Code)

	now = now.Add(10 * time.Minute)
	rl.cleanup()
	assert.Empty(t, rl.visitors)
}

func brotliRouter(body string) *gin.Engine {
	r := gin.New()
	r.Use(Brotli())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, body) })
	return r
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	body := strings.Repeat("feedback ", 400)
	w := do(brotliRouter(body), http.MethodGet, "/", http.Header{"Accept-Encoding": []string{"gzip, br"}})

	assert.Equal(t, "br", w.Header().Get("Content-Encoding"))
	plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, body, string(plain))
}

func TestBrotliLeavesSmallBodies(t *testing.T) {
	w := do(brotliRouter("ok"), http.MethodGet, "/", http.Header{"Accept-Encoding": []string{"br"}})

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "ok", w.Body.String())
}

func TestBrotliRespectsAcceptEncoding(t *testing.T) {
	body := strings.Repeat("x", 4096)

	w := do(brotliRouter(body), http.MethodGet, "/", nil)
	assert.Empty(t, w.Header().Get("Content-Encoding"))

	w = do(brotliRouter(body), http.MethodGet, "/", http.Header{"Accept-Encoding": []string{"br;q=0, gzip"}})
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, body, w.Body.String())
}

func TestCacheHeaders(t *testing.T) {
	r := gin.New()
	r.GET("/static", CacheControl(3600), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api", NoStore(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, "public, max-age=3600", do(r, http.MethodGet, "/static", nil).Header().Get("Cache-Control"))
	assert.Equal(t, "no-store", do(r, http.MethodGet, "/api", nil).Header().Get("Cache-Control"))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(response.RequestIDMiddleware(), RequestLogger(zerolog.New(&buf)))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	do(r, http.MethodGet, "/missing", http.Header{"X-Request-Id": []string{"rid-1"}})

	line := buf.String()
	assert.Contains(t, line, `"level":"warn"`)
	assert.Contains(t, line, `"status":404`)
	assert.Contains(t, line, `"request_id":"rid-1"`)
	assert.Contains(t, line, `"path":"/missing"`)
}
