package service

import (
	"context"
	"time"

	"github.com/edufeedback/backend/internal/events"
	"github.com/edufeedback/backend/internal/model"
	"github.com/edufeedback/backend/internal/repository"
	"github.com/rs/zerolog"
)

// UserStore persists users. Implemented by repository.UserRepository.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	CreateIfEmpty(ctx context.Context, u *model.User) (bool, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int) (*model.User, error)
	ListAll(ctx context.Context) ([]model.User, error)
	Delete(ctx context.Context, id int, check repository.DeleteCheck) (*model.User, error)
}

// FeedbackStore persists feedback. Implemented by repository.FeedbackRepository.
type FeedbackStore interface {
	Create(ctx context.Context, f *model.Feedback) error
	ListByUser(ctx context.Context, userID int) ([]model.Feedback, error)
	ListAllWithSubmitter(ctx context.Context) ([]model.FeedbackWithSubmitter, error)
	Delete(ctx context.Context, id int) error
}

// SessionStore tracks live login tokens. Implemented by repository.SessionRepository.
type SessionStore interface {
	Register(ctx context.Context, userID int, jti string, ttl time.Duration) error
	Exists(ctx context.Context, jti string) (bool, error)
	Revoke(ctx context.Context, userID int, jti string) error
	RevokeAll(ctx context.Context, userID int) (int, error)
}

// Publisher broadcasts change events. Implemented by events.RedisBus.
type Publisher interface {
	Publish(ctx context.Context, ev events.Event) error
}

// notify publishes ev and logs instead of failing; the change is already committed.
func notify(ctx context.Context, log zerolog.Logger, p Publisher, ev events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("kind", string(ev.Kind)).Int("id", ev.ID).Msg("Change event not published")
	}
}
