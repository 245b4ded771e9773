// Package client drives the portal from the user's side: it keeps the
// current view, issues API calls for user actions, and persists the
// logged-in identity so a restart resumes the session.
package client

import (
	"time"

	"github.com/edufeedback/backend/internal/model"
)

// View is the screen the user currently sees.
type View string

const (
	ViewAuth    View = "auth"
	ViewStudent View = "student"
	ViewAdmin   View = "admin"
)

// AuthMode selects the form shown on the auth view.
type AuthMode string

const (
	AuthModeLogin    AuthMode = "login"
	AuthModeRegister AuthMode = "register"
)

// AuthLabels are the texts and visible inputs of an auth form.
type AuthLabels struct {
	Title      string
	Button     string
	ToggleHint string
	ToggleLink string
	ShowName   bool
	ShowRole   bool
}

// Labels returns the form texts for m.
func (m AuthMode) Labels() AuthLabels {
	if m == AuthModeRegister {
		return AuthLabels{
			Title:      "Register New Account",
			Button:     "Sign Up",
			ToggleHint: "Already have an account?",
			ToggleLink: "Login",
			ShowName:   true,
			ShowRole:   true,
		}
	}
	return AuthLabels{
		Title:      "Student Portal",
		Button:     "Login",
		ToggleHint: "New here?",
		ToggleLink: "Create Account",
	}
}

// AdminTab is the visible list on the admin view.
type AdminTab string

const (
	TabFeedback AdminTab = "feedback"
	TabUsers    AdminTab = "users"
)

// NotificationTTL is how long a notification stays visible.
const NotificationTTL = 3 * time.Second

// Notification is a dismissible message. Error marks failures.
type Notification struct {
	Message string
	Error   bool
	At      time.Time
}

// Expired reports whether n has outlived NotificationTTL at now.
func (n Notification) Expired(now time.Time) bool {
	return now.Sub(n.At) >= NotificationTTL
}

// Identity is the logged-in user as persisted between runs.
type Identity struct {
	ID    int        `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
	Token string     `json:"token,omitempty"`
}

// State is a snapshot of everything a renderer needs.
type State struct {
	View         View
	AuthMode     AuthMode
	AdminTab     AdminTab
	User         *Identity
	History      []model.Feedback
	AllFeedback  []model.FeedbackWithSubmitter
	Users        []model.User
	Notification *Notification
}

// HeaderLabel is the "name (role)" text shown once logged in.
func (s State) HeaderLabel() string {
	if s.User == nil {
		return ""
	}
	return s.User.Name + " (" + string(s.User.Role) + ")"
}
