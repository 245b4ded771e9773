package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, h gin.HandlerFunc, header string) (*httptest.ResponseRecorder, ErrorBody) {
	t.Helper()

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", h)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("X-Request-ID", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body ErrorBody
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestSuccessHasNoEnvelope(t *testing.T) {
	w, _ := serve(t, func(c *gin.Context) {
		Success(c, http.StatusOK, gin.H{"message": "Feedback submitted", "id": 5})
	}, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Feedback submitted","id":5}`, w.Body.String())
}

func TestFailUsesRequestID(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		Fail(c, http.StatusForbidden, ErrLastAdmin)
	}, "req-123")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "Cannot delete the last remaining admin", body.Error)
	assert.Equal(t, ErrLastAdmin, body.Code)
	assert.Equal(t, "req-123", body.RequestID)
	assert.Nil(t, body.Fields)
}

func TestFailWithMessageAndFields(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		FailWithMessage(c, http.StatusInternalServerError, ErrInternal, "connection refused")
	}, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "connection refused", body.Error)
	assert.NotEmpty(t, body.RequestID)

	_, body = serve(t, func(c *gin.Context) {
		FailWithFields(c, http.StatusBadRequest, ErrValidation, "", map[string]string{"rating": "out of range"})
	}, "")
	assert.Equal(t, "All fields required", body.Error)
	require.Contains(t, body.Fields, "rating")
}

func TestAbortFailStopsChain(t *testing.T) {
	r := gin.New()
	reached := false
	r.GET("/", func(c *gin.Context) {
		AbortFail(c, http.StatusUnauthorized, ErrTokenRequired)
	}, func(c *gin.Context) {
		reached = true
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}

func TestUnknownCodeMessage(t *testing.T) {
	assert.Equal(t, "Unexpected error", GetMessage("NOPE"))
}

func TestRequestIDRejectsUnsafeHeader(t *testing.T) {
	for _, header := range []string{"bad id with spaces", strings.Repeat("x", 65)} {
		w, body := serve(t, func(c *gin.Context) {
			Fail(c, http.StatusNotFound, ErrNotFound)
		}, header)

		assert.NotEqual(t, header, body.RequestID)
		assert.Len(t, body.RequestID, 36)
		assert.Equal(t, body.RequestID, w.Header().Get(HeaderRequestID))
	}
}
