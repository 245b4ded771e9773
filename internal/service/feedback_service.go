package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/edufeedback/backend/internal/events"
	"github.com/edufeedback/backend/internal/model"
	"github.com/edufeedback/backend/internal/repository"
	"github.com/rs/zerolog"
)

// FeedbackService handles feedback submission and moderation.
type FeedbackService struct {
	feedback FeedbackStore
	bus      Publisher
	log      zerolog.Logger
}

// NewFeedbackService creates a new FeedbackService.
func NewFeedbackService(feedback FeedbackStore, bus Publisher, log zerolog.Logger) *FeedbackService {
	return &FeedbackService{feedback: feedback, bus: bus, log: log}
}

// Create validates and stores a feedback record. Empty comments are stored as NULL.
func (s *FeedbackService) Create(ctx context.Context, req *model.CreateFeedbackRequest) (*model.Feedback, error) {
	v := validation{}
	if req.UserID <= 0 {
		v["user_id"] = "user_id is required"
	}
	v.require("category", req.Category)
	if r := int(req.Rating); r < model.MinRating || r > model.MaxRating {
		v["rating"] = fmt.Sprintf("rating must be between %d and %d", model.MinRating, model.MaxRating)
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	f := &model.Feedback{
		UserID:   req.UserID,
		Category: strings.TrimSpace(req.Category),
		Rating:   int(req.Rating),
	}
	if strings.TrimSpace(req.Comments) != "" {
		comments := req.Comments
		f.Comments = &comments
	}

	if err := s.feedback.Create(ctx, f); err != nil {
		if errors.Is(err, repository.ErrUnknownOwner) {
			return nil, &ValidationError{Fields: map[string]string{"user_id": "user does not exist"}}
		}
		return nil, err
	}

	s.log.Info().Int("feedback_id", f.ID).Int("user_id", f.UserID).Int("rating", f.Rating).Msg("Feedback submitted")
	notify(ctx, s.log, s.bus, events.New(events.KindFeedbackCreated, f.ID))
	return f, nil
}

// History returns one user's feedback, newest first.
func (s *FeedbackService) History(ctx context.Context, userID int) ([]model.Feedback, error) {
	return s.feedback.ListByUser(ctx, userID)
}

// ListAll returns every feedback record with its submitter's name, newest first.
func (s *FeedbackService) ListAll(ctx context.Context) ([]model.FeedbackWithSubmitter, error) {
	return s.feedback.ListAllWithSubmitter(ctx)
}

// Delete removes a feedback record. Deleting an absent id succeeds.
func (s *FeedbackService) Delete(ctx context.Context, id int) error {
	if err := s.feedback.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Int("feedback_id", id).Msg("Feedback deleted")
	notify(ctx, s.log, s.bus, events.New(events.KindFeedbackDeleted, id))
	return nil
}
