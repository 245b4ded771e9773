package websocket

import (
	"time"

	"github.com/edufeedback/backend/internal/events"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is the only client frame shape.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventPong   Event = "pong"
	EventChange Event = "change"
)

// ChangeMessage tells an admin view which list to re-fetch.
type ChangeMessage struct {
	Event Event       `json:"event"`
	Kind  events.Kind `json:"kind"`
	ID    int         `json:"id"`
	At    time.Time   `json:"at"`
}

// NewChangeMessage wraps a broadcast event for the wire.
func NewChangeMessage(ev events.Event) ChangeMessage {
	return ChangeMessage{Event: EventChange, Kind: ev.Kind, ID: ev.ID, At: ev.At}
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
