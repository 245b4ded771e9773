package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/edufeedback/backend/internal/events"
	"github.com/edufeedback/backend/internal/model"
	"github.com/rs/zerolog"
)

const (
	confirmDeleteFeedback = "Are you sure?"
	confirmDeleteUser     = "Remove this user? Their feedback will also be deleted."
	sessionExpired        = "Session expired. Please login again."
)

// ErrNotAllowed is returned for events that do not apply to the current view.
var ErrNotAllowed = errors.New("action not available in the current view")

// ConfirmFunc asks the user to confirm a destructive action.
type ConfirmFunc func(prompt string) bool

// Controller is the view-state machine behind the portal UI. Dispatch is
// serialized, so each action completes its request before the next starts.
type Controller struct {
	api     API
	store   Store
	confirm ConfirmFunc
	log     zerolog.Logger

	mu     sync.Mutex
	state  State
	render func(State)
	now    func() time.Time
}

// NewController creates a controller in the Auth view. A nil confirm
// approves every prompt.
func NewController(api API, store Store, confirm ConfirmFunc, log zerolog.Logger) *Controller {
	if confirm == nil {
		confirm = func(string) bool { return true }
	}
	return &Controller{
		api:     api,
		store:   store,
		confirm: confirm,
		log:     log.With().Str("component", "client_controller").Logger(),
		state:   State{View: ViewAuth, AuthMode: AuthModeLogin, AdminTab: TabFeedback},
		now:     time.Now,
	}
}

// OnRender registers fn to receive a snapshot after Start and every Dispatch.
func (c *Controller) OnRender(fn func(State)) {
	c.mu.Lock()
	c.render = fn
	c.mu.Unlock()
}

// Start restores a persisted identity and enters the matching view.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	c.start(ctx)
	c.unlockAndRender()
}

func (c *Controller) start(ctx context.Context) {
	id, err := c.store.Load()
	if err != nil {
		c.log.Warn().Err(err).Msg("Discarding unreadable stored identity")
		if err := c.store.Clear(); err != nil {
			c.log.Warn().Err(err).Msg("Failed to clear stored identity")
		}
		return
	}
	if id == nil {
		return
	}

	c.api.SetToken(id.Token)
	c.enter(ctx, id)
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// snapshot copies the state, first dropping an expired notification.
func (c *Controller) snapshot() State {
	if n := c.state.Notification; n != nil && n.Expired(c.now()) {
		c.state.Notification = nil
	}
	s := c.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	if s.Notification != nil {
		n := *s.Notification
		s.Notification = &n
	}
	s.History = append([]model.Feedback(nil), s.History...)
	s.AllFeedback = append([]model.FeedbackWithSubmitter(nil), s.AllFeedback...)
	s.Users = append([]model.User(nil), s.Users...)
	return s
}

// CanRemove reports whether the users list offers removal of u.
func (c *Controller) CanRemove(u model.User) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.User != nil && c.state.User.ID != u.ID
}

// Dispatch applies ev. A failed request is also shown as an error notification.
func (c *Controller) Dispatch(ctx context.Context, ev Event) error {
	c.mu.Lock()
	err := c.dispatch(ctx, ev)
	c.unlockAndRender()
	return err
}

// unlockAndRender releases the lock, then hands the renderer a snapshot.
func (c *Controller) unlockAndRender() {
	fn, s := c.render, c.snapshot()
	c.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func (c *Controller) dispatch(ctx context.Context, ev Event) error {
	var err error
	switch e := ev.(type) {
	case ToggleAuthMode:
		err = c.toggleAuthMode()
	case SubmitAuth:
		err = c.submitAuth(ctx, e)
	case Logout:
		c.logout(ctx)
	case SubmitFeedback:
		err = c.submitFeedback(ctx, e)
	case SwitchAdminTab:
		err = c.switchAdminTab(e.Tab)
	case DeleteFeedback:
		err = c.deleteFeedback(ctx, e.ID)
	case DeleteUser:
		err = c.deleteUser(ctx, e.ID)
	case RemoteChange:
		err = c.remoteChange(ctx, e.Kind)
	case DismissNotification:
		c.state.Notification = nil
	default:
		err = fmt.Errorf("unknown event %T", ev)
	}
	return err
}

func (c *Controller) toggleAuthMode() error {
	if c.state.View != ViewAuth {
		return ErrNotAllowed
	}
	if c.state.AuthMode == AuthModeLogin {
		c.state.AuthMode = AuthModeRegister
	} else {
		c.state.AuthMode = AuthModeLogin
	}
	return nil
}

func (c *Controller) submitAuth(ctx context.Context, e SubmitAuth) error {
	if c.state.View != ViewAuth {
		return ErrNotAllowed
	}

	if c.state.AuthMode == AuthModeRegister {
		role := e.Role
		if role == "" {
			role = model.RoleStudent
		}
		_, err := c.api.Register(ctx, model.RegisterRequest{
			Name:     e.Name,
			Email:    e.Email,
			Password: e.Password,
			Role:     role,
		})
		if err != nil {
			return c.failed(err)
		}
		c.state.AuthMode = AuthModeLogin
		c.notify("Registration successful! Please login.")
		return nil
	}

	resp, err := c.api.Login(ctx, model.LoginRequest{Email: e.Email, Password: e.Password})
	if err != nil {
		return c.failed(err)
	}

	id := &Identity{ID: resp.ID, Name: resp.Name, Email: resp.Email, Role: resp.Role, Token: resp.Token}
	if err := c.store.Save(id); err != nil {
		c.log.Warn().Err(err).Msg("Failed to persist identity")
	}
	c.api.SetToken(id.Token)
	c.notify("Welcome back!")
	c.enter(ctx, id)
	return nil
}

func (c *Controller) logout(ctx context.Context) {
	if c.state.User != nil && c.state.User.Token != "" {
		if err := c.api.Logout(ctx); err != nil {
			c.log.Debug().Err(err).Msg("Server logout failed")
		}
	}
	c.endSession()
	c.notify("Logged out successfully")
}

func (c *Controller) submitFeedback(ctx context.Context, e SubmitFeedback) error {
	if c.state.View != ViewStudent || c.state.User == nil {
		return ErrNotAllowed
	}

	_, err := c.api.SubmitFeedback(ctx, model.CreateFeedbackRequest{
		UserID:   c.state.User.ID,
		Category: e.Category,
		Rating:   model.Rating(e.Rating),
		Comments: e.Comments,
	})
	if err != nil {
		return c.failed(err)
	}
	c.notify("Feedback submitted!")
	return c.loadHistory(ctx)
}

func (c *Controller) switchAdminTab(tab AdminTab) error {
	if c.state.View != ViewAdmin {
		return ErrNotAllowed
	}
	if tab != TabFeedback && tab != TabUsers {
		return fmt.Errorf("unknown admin tab %q", tab)
	}
	c.state.AdminTab = tab
	return nil
}

func (c *Controller) deleteFeedback(ctx context.Context, id int) error {
	if c.state.View != ViewAdmin {
		return ErrNotAllowed
	}
	if !c.confirm(confirmDeleteFeedback) {
		return nil
	}
	if err := c.api.DeleteFeedback(ctx, id); err != nil {
		return c.failed(err)
	}
	c.notify("Feedback deleted")
	return c.loadAllFeedback(ctx)
}

func (c *Controller) deleteUser(ctx context.Context, id int) error {
	if c.state.View != ViewAdmin {
		return ErrNotAllowed
	}
	if !c.confirm(confirmDeleteUser) {
		return nil
	}
	if err := c.api.DeleteUser(ctx, id); err != nil {
		return c.failed(err)
	}
	c.notify("User removed")
	return c.loadAdminLists(ctx)
}

// remoteChange re-fetches the admin lists another session modified.
func (c *Controller) remoteChange(ctx context.Context, kind events.Kind) error {
	if c.state.View != ViewAdmin {
		return nil
	}
	switch {
	case strings.HasPrefix(string(kind), "feedback."):
		return c.loadAllFeedback(ctx)
	case strings.HasPrefix(string(kind), "user."):
		return c.loadAdminLists(ctx)
	}
	return nil
}

// enter moves to the view for id's role and loads its lists.
func (c *Controller) enter(ctx context.Context, id *Identity) {
	c.state.User = id
	if id.Role == model.RoleAdmin {
		c.state.View = ViewAdmin
		c.state.AdminTab = TabFeedback
		_ = c.loadAdminLists(ctx)
		return
	}
	c.state.View = ViewStudent
	_ = c.loadHistory(ctx)
}

func (c *Controller) loadHistory(ctx context.Context) error {
	list, err := c.api.History(ctx, c.state.User.ID)
	if err != nil {
		return c.failed(err)
	}
	c.state.History = list
	return nil
}

func (c *Controller) loadAllFeedback(ctx context.Context) error {
	list, err := c.api.AllFeedback(ctx)
	if err != nil {
		return c.failed(err)
	}
	c.state.AllFeedback = list
	return nil
}

func (c *Controller) loadAdminLists(ctx context.Context) error {
	if err := c.loadAllFeedback(ctx); err != nil {
		return err
	}
	users, err := c.api.Users(ctx)
	if err != nil {
		return c.failed(err)
	}
	c.state.Users = users
	return nil
}

func (c *Controller) notify(msg string) {
	c.state.Notification = &Notification{Message: msg, At: c.now()}
}

// failed shows err as an error notification and returns it. A 401 while
// logged in means the saved token expired or was revoked, so the session
// is dropped and the Auth view shown.
func (c *Controller) failed(err error) error {
	c.log.Debug().Err(err).Msg("Request failed")

	var apiErr *APIError
	if c.state.User != nil && errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		c.endSession()
		c.state.Notification = &Notification{Message: sessionExpired, Error: true, At: c.now()}
		return err
	}

	c.state.Notification = &Notification{Message: err.Error(), Error: true, At: c.now()}
	return err
}

// endSession forgets the identity locally and returns to the login form.
func (c *Controller) endSession() {
	c.api.SetToken("")
	if err := c.store.Clear(); err != nil {
		c.log.Warn().Err(err).Msg("Failed to clear stored identity")
	}
	c.state = State{View: ViewAuth, AuthMode: AuthModeLogin, AdminTab: TabFeedback}
}
