package handler

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/edufeedback/backend/internal/middleware"
	"github.com/edufeedback/backend/internal/policy"
	"github.com/edufeedback/backend/internal/repository"
	"github.com/edufeedback/backend/internal/response"
	"github.com/edufeedback/backend/internal/service"
	"github.com/edufeedback/backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// fail maps a service, repository or policy error onto the error body.
// Unclassified errors are store failures and pass their message through.
func fail(c *gin.Context, log zerolog.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		failValidation(c, verr.Fields)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidCredentials)
	case errors.Is(err, repository.ErrDuplicateEmail):
		response.Fail(c, http.StatusInternalServerError, response.ErrDuplicateEmail)
	case errors.Is(err, repository.ErrUserNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrUserNotFound)
	case isPolicyError(err):
		status, code := middleware.PolicyStatus(err)
		response.Fail(c, status, code)
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		response.FailWithMessage(c, http.StatusInternalServerError, response.ErrInternal, err.Error())
	}
}

func isPolicyError(err error) bool {
	for _, target := range []error{
		policy.ErrUnauthenticated,
		policy.ErrAdminOnly,
		policy.ErrNotOwner,
		policy.ErrStudentOnly,
		policy.ErrLastAdmin,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// failValidation answers 400. An undecodable body is INVALID_PAYLOAD.
// Missing fields read "All fields required"; otherwise the first field
// message is used.
func failValidation(c *gin.Context, fields map[string]string) {
	if _, ok := fields[validator.FieldDetail]; ok && len(fields) == 1 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, "", fields)
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	message := ""
	for _, k := range keys {
		if strings.Contains(fields[k], "required") {
			message = response.GetMessage(response.ErrValidation)
			break
		}
	}
	if message == "" && len(keys) > 0 {
		message = fields[keys[0]]
	}

	response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, message, fields)
}

// pathID parses a positive integer path parameter, answering 400 when it is not one.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
