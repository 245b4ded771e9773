package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/edufeedback/backend/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bind(t *testing.T, body string, dst interface{}) map[string]string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	Setup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return Bind(c, dst)
}

func TestBindUsesJSONFieldNames(t *testing.T) {
	var req model.RegisterRequest
	fields := bind(t, `{"name":"Ann","role":"teacher"}`, &req)

	require.NotNil(t, fields)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "role")
	assert.NotContains(t, fields, "name")
	assert.Contains(t, fields["email"], "required")
}

func TestBindAcceptsStringRating(t *testing.T) {
	var req model.CreateFeedbackRequest
	fields := bind(t, `{"user_id":3,"category":"Facilities","rating":"4","comments":""}`, &req)

	assert.Nil(t, fields)
	assert.Equal(t, model.Rating(4), req.Rating)
}

func TestBindReportsMalformedBody(t *testing.T) {
	var req model.LoginRequest
	fields := bind(t, `{"email":`, &req)

	assert.Contains(t, fields, FieldDetail)
}

func TestBindReportsWrongType(t *testing.T) {
	var req model.CreateFeedbackRequest
	fields := bind(t, `{"user_id":"abc","category":"x","rating":3}`, &req)

	assert.Contains(t, fields, "user_id")
}
