package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/edufeedback/backend/internal/events"
	ws "github.com/edufeedback/backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Subscriber delivers change events. Implemented by events.RedisBus.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan events.Event, func() error)
}

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams change events to admin dashboards.
type WSHandler struct {
	bus      Subscriber
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(bus Subscriber, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		bus:      bus,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// AdminChanges godoc
// WS /ws/admin/changes?token=...
// Forwards every change event until the client disconnects.
func (h *WSHandler) AdminChanges(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	changes, closeSub := h.bus.Subscribe(ctx)
	defer closeSub() //nolint:errcheck

	h.log.Debug().Str("ip", c.ClientIP()).Msg("Admin change stream connected")

	replies := make(chan reply, 4)
	go h.readLoop(conn, replies, cancel)
	h.writeLoop(ctx, conn, changes, replies)

	h.log.Debug().Str("ip", c.ClientIP()).Msg("Admin change stream closed")
}

// reply is a frame readLoop asks writeLoop to send. An empty errMsg means pong.
type reply struct {
	errMsg string
}

// readLoop answers client frames. gorilla allows only one concurrent writer,
// so replies are handed to writeLoop.
func (h *WSHandler) readLoop(conn *websocket.Conn, replies chan<- reply, done context.CancelFunc) {
	defer done()
	ws.KeepAlive(conn)

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if isDecodeError(err) {
				h.queue(replies, reply{errMsg: "invalid payload"})
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		if msg.Action != ws.ActionPing {
			h.log.Debug().Str("action", string(msg.Action)).Msg("Unknown action")
			h.queue(replies, reply{errMsg: "unknown action: " + string(msg.Action)})
			continue
		}
		h.queue(replies, reply{})
	}
}

// queue drops the reply when writeLoop is behind.
func (h *WSHandler) queue(replies chan<- reply, r reply) {
	select {
	case replies <- r:
	default:
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, changes <-chan events.Event, replies <-chan reply) {
	ticker := time.NewTicker(ws.PingPeriod)
	defer ticker.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-changes:
			if !ok {
				return
			}
			err = ws.WriteTyped(conn, ws.NewChangeMessage(ev))
		case r := <-replies:
			if r.errMsg != "" {
				err = ws.WriteError(conn, r.errMsg)
			} else {
				err = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			}
		case <-ticker.C:
			err = ws.WritePing(conn)
		}
		if err != nil {
			h.log.Debug().Err(err).Msg("Write to change stream failed")
			return
		}
	}
}

// isDecodeError reports a text frame that is not a valid request envelope.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}
