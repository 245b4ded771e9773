package handler

import (
	"net/http"

	"github.com/edufeedback/backend/internal/middleware"
	"github.com/edufeedback/backend/internal/model"
	"github.com/edufeedback/backend/internal/policy"
	"github.com/edufeedback/backend/internal/response"
	"github.com/edufeedback/backend/internal/service"
	"github.com/edufeedback/backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// FeedbackHandler handles feedback submission, history and moderation.
type FeedbackHandler struct {
	feedbackService *service.FeedbackService
	guard           *policy.Guard
	log             zerolog.Logger
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(feedbackService *service.FeedbackService, guard *policy.Guard, log zerolog.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
		guard:           guard,
		log:             log.With().Str("component", "feedback_handler").Logger(),
	}
}

// Create godoc
// POST /api/feedback
// Stores a rating under the caller's own user id.
func (h *FeedbackHandler) Create(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if err := h.guard.Authenticated(identity); err != nil {
		middleware.AbortPolicy(c, err)
		return
	}

	var req model.CreateFeedbackRequest
	if fields := validator.Bind(c, &req); fields != nil {
		failValidation(c, fields)
		return
	}

	if err := h.guard.SubmitFeedback(identity, req.UserID); err != nil {
		middleware.AbortPolicy(c, err)
		return
	}

	fb, err := h.feedbackService.Create(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, model.CreateFeedbackResponse{
		Message: "Feedback submitted",
		ID:      fb.ID,
	})
}

// History godoc
// GET /api/feedback/history/:userId
// Lists one user's feedback, newest first.
func (h *FeedbackHandler) History(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	if err := h.guard.ReadHistory(middleware.GetIdentity(c), userID); err != nil {
		middleware.AbortPolicy(c, err)
		return
	}

	list, err := h.feedbackService.History(c.Request.Context(), userID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, list)
}

// ListAll godoc
// GET /api/admin/feedback
// Lists every feedback record with the submitter's name.
func (h *FeedbackHandler) ListAll(c *gin.Context) {
	list, err := h.feedbackService.ListAll(c.Request.Context())
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, list)
}

// Delete godoc
// DELETE /api/admin/feedback/:id
func (h *FeedbackHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.feedbackService.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, model.MessageResponse{Message: "Feedback deleted"})
}
