// Package events broadcasts data change notifications so that open admin
// views know when to re-fetch.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/edufeedback/backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Kind names what changed.
type Kind string

const (
	KindFeedbackCreated Kind = "feedback.created"
	KindFeedbackDeleted Kind = "feedback.deleted"
	KindUserRegistered  Kind = "user.registered"
	KindUserDeleted     Kind = "user.deleted"
)

// Event is one change notification. ID is the affected feedback or user.
type Event struct {
	Kind Kind      `json:"kind"`
	ID   int       `json:"id"`
	At   time.Time `json:"at"`
}

// New stamps an event with the current time.
func New(kind Kind, id int) Event {
	return Event{Kind: kind, ID: id, At: time.Now().UTC()}
}

// RedisBus publishes and subscribes to change events over Redis PubSub.
type RedisBus struct {
	rdb     *redis.Client
	channel string
	log     zerolog.Logger
}

// NewRedisBus creates a bus on the application changes channel.
func NewRedisBus(rdb *redis.Client, log zerolog.Logger) *RedisBus {
	return &RedisBus{
		rdb:     rdb,
		channel: config.CacheKey.ChangesChannel(),
		log:     log.With().Str("component", "event_bus").Logger(),
	}
}

// Publish sends ev to every subscriber.
func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, payload).Err()
}

// Subscribe streams events until ctx is done or the returned closer is called.
// It returns once Redis has confirmed the subscription, so events published
// afterwards are delivered. If the subscription fails the channel is closed.
// Malformed payloads are logged and skipped.
func (b *RedisBus) Subscribe(ctx context.Context) (<-chan Event, func() error) {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	out := make(chan Event, 16)

	if _, err := pubsub.Receive(ctx); err != nil {
		b.log.Warn().Err(err).Str("channel", b.channel).Msg("Change subscription failed")
		close(out)
		return out, pubsub.Close
	}

	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.log.Warn().Err(err).Msg("Dropping malformed change event")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, pubsub.Close
}
