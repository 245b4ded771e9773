package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/edufeedback/backend/internal/config"
	"github.com/edufeedback/backend/internal/events"
	"github.com/edufeedback/backend/internal/handler"
	"github.com/edufeedback/backend/internal/model"
	"github.com/edufeedback/backend/internal/policy"
	"github.com/edufeedback/backend/internal/router"
	"github.com/edufeedback/backend/internal/service"
	"github.com/edufeedback/backend/internal/testutil"
	"github.com/edufeedback/backend/internal/validator"
	ws "github.com/edufeedback/backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	validator.Setup()

	cfg := &config.Config{
		GinMode:                gin.TestMode,
		JWTSecret:              "client-test-secret",
		JWTExpiry:              time.Hour,
		BcryptCost:             bcrypt.MinCost,
		AuthMode:               config.AuthModeToken,
		AllowAdminRegistration: true,
		PublicDir:              t.TempDir(),
		SeedAdminName:          "System Admin",
		SeedAdminEmail:         "admin@college.edu",
		SeedAdminPassword:      "admin123",
	}
	log := zerolog.Nop()

	db := testutil.NewMemoryDB()
	bus := testutil.NewMemoryBus()
	auth := service.NewAuthService(cfg, testutil.NewMemorySessions())
	users := service.NewUserService(cfg, db.Users(), auth, bus, log)
	feedback := service.NewFeedbackService(db.Feedback(), bus, log)
	guard := policy.NewGuard(cfg.Enforced())

	_, err := users.SeedDefaultAdmin(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	engine := router.SetupRouter(ctx, auth, guard, &router.Handlers{
		Auth:     handler.NewAuthHandler(auth, users, log),
		Feedback: handler.NewFeedbackHandler(feedback, guard, log),
		User:     handler.NewUserHandler(users, log),
		WS:       handler.NewWSHandler(bus, log, nil),
	}, cfg, log)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPAPIErrorBody(t *testing.T) {
	srv := newServer(t)
	api := NewHTTPAPI(srv.URL+"/", nil)

	_, err := api.Login(context.Background(), model.LoginRequest{Email: "nobody@x.edu", Password: "pw"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
	assert.Equal(t, "Invalid credentials", apiErr.Error())

	_, err = api.Users(context.Background())
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestPortalFlowAgainstServer(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	student := NewController(NewHTTPAPI(srv.URL, nil), &MemoryStore{}, nil, zerolog.Nop())
	freeze(student)
	student.Start(ctx)
	require.NoError(t, student.Dispatch(ctx, ToggleAuthMode{}))
	require.NoError(t, student.Dispatch(ctx, SubmitAuth{Name: "Sam", Email: "sam@college.edu", Password: "pw-sam", Role: model.RoleStudent}))
	require.NoError(t, student.Dispatch(ctx, SubmitAuth{Email: "sam@college.edu", Password: "pw-sam"}))
	require.Equal(t, ViewStudent, student.State().View)

	require.NoError(t, student.Dispatch(ctx, SubmitFeedback{Category: "Library", Rating: 5, Comments: "Quiet and clean"}))
	history := student.State().History
	require.Len(t, history, 1)
	assert.Equal(t, "Library", history[0].Category)
	require.NotNil(t, history[0].Comments)
	assert.Equal(t, "Quiet and clean", *history[0].Comments)

	err := student.Dispatch(ctx, SubmitFeedback{Category: "Library", Rating: 9})
	require.Error(t, err)
	assert.True(t, student.State().Notification.Error)

	admin := NewController(NewHTTPAPI(srv.URL, nil), &MemoryStore{}, nil, zerolog.Nop())
	freeze(admin)
	require.NoError(t, admin.Dispatch(ctx, SubmitAuth{Email: "admin@college.edu", Password: "admin123"}))
	s := admin.State()
	require.Equal(t, ViewAdmin, s.View)
	require.Len(t, s.AllFeedback, 1)
	assert.Equal(t, "Sam", s.AllFeedback[0].StudentName)
	require.Len(t, s.Users, 2)

	var samID int
	for _, u := range s.Users {
		if u.Email == "sam@college.edu" {
			samID = u.ID
		}
	}
	require.NoError(t, admin.Dispatch(ctx, DeleteUser{ID: samID}))
	s = admin.State()
	assert.Len(t, s.Users, 1)
	assert.Empty(t, s.AllFeedback)

	err = admin.Dispatch(ctx, DeleteUser{ID: s.User.ID})
	require.Error(t, err)
	assert.Equal(t, "Cannot delete the last remaining admin", admin.State().Notification.Message)

	require.NoError(t, admin.Dispatch(ctx, Logout{}))
	assert.Equal(t, ViewAuth, admin.State().View)
}

func TestDialChangesRequiresAdmin(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	api := NewHTTPAPI(srv.URL, nil)

	_, err := api.DialChanges(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	resp, err := api.Login(ctx, model.LoginRequest{Email: "admin@college.edu", Password: "admin123"})
	require.NoError(t, err)
	api.SetToken(resp.Token)

	conn, err := api.DialChanges(ctx)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	require.NoError(t, conn.WriteJSON(ws.RequestEnvelope{Action: ws.ActionPing}))
	var pong ws.PongResponse
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, ws.EventPong, pong.Event)
}

type stubDialer struct {
	url string
}

func (d stubDialer) DialChanges(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, d.url, nil)
	return conn, err
}

func TestWatchDispatchesRemoteChanges(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(ws.PongResponse{Event: ws.EventPong})
		_ = conn.WriteMessage(websocket.TextMessage, []byte("{not json"))
		_ = conn.WriteJSON(ws.NewChangeMessage(events.New(events.KindUserDeleted, 7)))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer srv.Close()

	api := &fakeAPI{}
	c := adminController(t, api, nil)

	err := Watch(context.Background(), stubDialer{url: "ws" + strings.TrimPrefix(srv.URL, "http")}, c)

	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
	assert.Equal(t, []string{"all_feedback", "users"}, api.calls)
}
