package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/edufeedback/backend/internal/config"
	"github.com/edufeedback/backend/internal/events"
	"github.com/edufeedback/backend/internal/model"
	"github.com/edufeedback/backend/internal/policy"
	"github.com/edufeedback/backend/internal/repository"
	"github.com/rs/zerolog"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// UserService handles registration, login and account administration.
type UserService struct {
	cfg   *config.Config
	users UserStore
	auth  *AuthService
	bus   Publisher
	log   zerolog.Logger

	// dummyHash is compared against when the email is unknown so both
	// login failure paths cost one bcrypt comparison.
	dummyHash string
}

// NewUserService creates a new UserService.
func NewUserService(cfg *config.Config, users UserStore, auth *AuthService, bus Publisher, log zerolog.Logger) *UserService {
	dummy, _ := auth.HashPassword("edufeedback-unknown-user")
	return &UserService{
		cfg:       cfg,
		users:     users,
		auth:      auth,
		bus:       bus,
		log:       log,
		dummyHash: dummy,
	}
}

// Register creates a student or admin account from the public form.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	return s.create(ctx, req, s.cfg.AllowAdminRegistration)
}

// CreateAdmin creates an admin account regardless of ALLOW_ADMIN_REGISTRATION.
func (s *UserService) CreateAdmin(ctx context.Context, name, email, password string) (*model.User, error) {
	return s.create(ctx, &model.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     model.RoleAdmin,
	}, true)
}

func (s *UserService) create(ctx context.Context, req *model.RegisterRequest, allowAdmin bool) (*model.User, error) {
	v := validation{}
	v.require("name", req.Name)
	v.require("email", req.Email)
	v.require("password", req.Password)
	if len(req.Password) > maxPasswordBytes {
		v["password"] = fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes)
	}
	switch {
	case !req.Role.Valid():
		v["role"] = "role must be admin or student"
	case req.Role == model.RoleAdmin && !allowAdmin:
		v["role"] = "admin accounts cannot be self-registered"
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info().Int("user_id", u.ID).Str("role", string(u.Role)).Msg("User registered")
	notify(ctx, s.log, s.bus, events.New(events.KindUserRegistered, u.ID))
	return u, nil
}

// Authenticate verifies credentials. Unknown email and wrong password both
// yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = s.auth.CheckPassword(s.dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Login authenticates and issues a session token.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	u, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.auth.IssueToken(ctx, u)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int("user_id", u.ID).Msg("User logged in")
	return &model.LoginResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		Token: token,
	}, nil
}

// GetByID returns a user without the password hash.
func (s *UserService) GetByID(ctx context.Context, id int) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// List returns every user ordered by id.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.users.ListAll(ctx)
}

// Delete removes a user with their feedback, refusing to remove the last
// admin, and revokes the user's sessions.
func (s *UserService) Delete(ctx context.Context, id int) error {
	deleted, err := s.users.Delete(ctx, id, func(target *model.User, adminCount int) error {
		return policy.EnsureAdminRemains(target.Role, adminCount)
	})
	if err != nil {
		return err
	}

	revoked, err := s.auth.RevokeUser(ctx, deleted.ID)
	if err != nil {
		s.log.Warn().Err(err).Int("user_id", deleted.ID).Msg("Sessions of deleted user not revoked")
	}

	s.log.Info().Int("user_id", deleted.ID).Int("sessions_revoked", revoked).Msg("User deleted")
	notify(ctx, s.log, s.bus, events.New(events.KindUserDeleted, deleted.ID))
	return nil
}

// SeedDefaultAdmin inserts the configured admin when no user exists yet.
func (s *UserService) SeedDefaultAdmin(ctx context.Context) (bool, error) {
	hash, err := s.auth.HashPassword(s.cfg.SeedAdminPassword)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Name:         s.cfg.SeedAdminName,
		Email:        s.cfg.SeedAdminEmail,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}
	created, err := s.users.CreateIfEmpty(ctx, u)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	if created {
		s.log.Info().Int("user_id", u.ID).Str("email", u.Email).Msg("Default admin created")
	}
	return created, nil
}
