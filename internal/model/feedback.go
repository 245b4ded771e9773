package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5

	// FeedbackStatusActive is assigned to every new record.
	FeedbackStatusActive = "active"
)

// Feedback is one rating submitted by a student.
type Feedback struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Category  string    `json:"category"`
	Rating    int       `json:"rating"`
	Comments  *string   `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
}

// FeedbackWithSubmitter is a feedback row joined with its owner's name.
type FeedbackWithSubmitter struct {
	Feedback
	StudentName string `json:"student_name"`
}

// Rating accepts either a JSON number or a numeric string, since HTML
// radio inputs post their value as text.
type Rating int

// UnmarshalJSON implements json.Unmarshaler.
func (r *Rating) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*r = 0
			return nil
		}
		data = []byte(s)
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("rating must be an integer: %w", err)
	}
	*r = Rating(n)
	return nil
}

// CreateFeedbackRequest is the payload for submitting feedback.
// Rating range is checked by FeedbackService.Create.
type CreateFeedbackRequest struct {
	UserID   int    `json:"user_id" binding:"required"`
	Category string `json:"category" binding:"required,max=100"`
	Rating   Rating `json:"rating"`
	Comments string `json:"comments" binding:"max=2000"`
}

// CreateFeedbackResponse is returned after a successful submission.
type CreateFeedbackResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}
