package service

import (
	"testing"
	"time"

	"github.com/edufeedback/backend/internal/config"
	"github.com/edufeedback/backend/internal/testutil"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	cfg      *config.Config
	db       *testutil.MemoryDB
	sessions *testutil.MemorySessions
	bus      *testutil.MemoryBus
	auth     *AuthService
	users    *UserService
	feedback *FeedbackService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:              "test-secret",
		JWTExpiry:              time.Hour,
		BcryptCost:             bcrypt.MinCost,
		AllowAdminRegistration: true,
		SeedAdminName:          "System Admin",
		SeedAdminEmail:         "admin@college.edu",
		SeedAdminPassword:      "admin123",
	}
	f := &fixture{
		cfg:      cfg,
		db:       testutil.NewMemoryDB(),
		sessions: testutil.NewMemorySessions(),
		bus:      testutil.NewMemoryBus(),
	}
	f.auth = NewAuthService(cfg, f.sessions)
	f.users = NewUserService(cfg, f.db.Users(), f.auth, f.bus, zerolog.Nop())
	f.feedback = NewFeedbackService(f.db.Feedback(), f.bus, zerolog.Nop())
	return f
}
