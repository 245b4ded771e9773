package client

import (
	"github.com/edufeedback/backend/internal/events"
	"github.com/edufeedback/backend/internal/model"
)

// Event is a user action or remote notification handled by Controller.Dispatch.
type Event interface {
	event()
}

// ToggleAuthMode switches between the login and register forms.
type ToggleAuthMode struct{}

// SubmitAuth submits the auth form. Name and Role are used only when registering.
type SubmitAuth struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

// Logout ends the session from any view.
type Logout struct{}

// SubmitFeedback posts a rating for the logged-in student.
type SubmitFeedback struct {
	Category string
	Rating   int
	Comments string
}

// SwitchAdminTab changes the visible admin list.
type SwitchAdminTab struct {
	Tab AdminTab
}

// DeleteFeedback removes one feedback record after confirmation.
type DeleteFeedback struct {
	ID int
}

// DeleteUser removes a user and their feedback after confirmation.
type DeleteUser struct {
	ID int
}

// RemoteChange reports that another session changed data.
type RemoteChange struct {
	Kind events.Kind
}

// DismissNotification hides the current notification.
type DismissNotification struct{}

func (ToggleAuthMode) event()      {}
func (SubmitAuth) event()          {}
func (Logout) event()              {}
func (SubmitFeedback) event()      {}
func (SwitchAdminTab) event()      {}
func (DeleteFeedback) event()      {}
func (DeleteUser) event()          {}
func (RemoteChange) event()        {}
func (DismissNotification) event() {}
