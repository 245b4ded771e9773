package client

import (
	"context"
	"encoding/json"
	"time"

	ws "github.com/edufeedback/backend/internal/websocket"
	"github.com/gorilla/websocket"
)

// ChangeDialer opens the admin change stream.
type ChangeDialer interface {
	DialChanges(ctx context.Context) (*websocket.Conn, error)
}

// Watch forwards change events from the stream to the controller as
// RemoteChange until ctx is done or the connection fails.
func Watch(ctx context.Context, dialer ChangeDialer, c *Controller) error {
	conn, err := dialer.DialChanges(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var msg ws.ChangeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn().Err(err).Msg("Ignoring malformed change frame")
			continue
		}
		if msg.Event != ws.EventChange {
			continue
		}
		if err := c.Dispatch(ctx, RemoteChange{Kind: msg.Kind}); err != nil {
			c.log.Warn().Err(err).Str("kind", string(msg.Kind)).Msg("Refresh after remote change failed")
		}
	}
}
