package client

import (
	"context"
	"fmt"

	"github.com/edufeedback/backend/internal/model"
)

// API is the portal's REST surface as seen by the controller.
type API interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.RegisterResponse, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error)
	Logout(ctx context.Context) error
	SubmitFeedback(ctx context.Context, req model.CreateFeedbackRequest) (*model.CreateFeedbackResponse, error)
	History(ctx context.Context, userID int) ([]model.Feedback, error)
	AllFeedback(ctx context.Context) ([]model.FeedbackWithSubmitter, error)
	Users(ctx context.Context) ([]model.User, error)
	DeleteFeedback(ctx context.Context, id int) error
	DeleteUser(ctx context.Context, id int) error
	// SetToken sets the bearer credential sent with later calls. Empty clears it.
	SetToken(token string)
}

// APIError is a failed call decoded from the server's error body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}
