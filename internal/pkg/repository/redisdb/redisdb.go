// Package redisdb wraps the redis client used for the live attendance feed
// and the daily-summary cache.
package redisdb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const feedChannel = "attendance_changes"

// Event is published whenever an attendance record is created or moderated.
// Subscribers treat any event as "reload the list"; no ordering is promised
// across events beyond what redis delivers.
type Event struct {
	Operation string    `json:"operation"` // "create" or "status"
	RecordID  int       `json:"record_id"`
	At        time.Time `json:"at"`
}

type Client struct {
	*redis.Client
}

func NewClient(addr, password string) *Client {
	return &Client{Client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})}
}

// PublishEvent pushes a change event onto the feed channel. Publish failures
// are returned but callers treat the feed as best effort; the durable write
// has already happened.
func (c *Client) PublishEvent(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "encoding feed event")
	}

	if err := c.Publish(ctx, feedChannel, payload).Err(); err != nil {
		return errors.Wrap(err, "publishing feed event")
	}

	return nil
}

// SubscribeEvents returns a channel of decoded feed events. The subscription
// ends when ctx is cancelled; undecodable payloads are skipped.
func (c *Client) SubscribeEvents(ctx context.Context) <-chan Event {
	pubsub := c.Subscribe(ctx, feedChannel)

	// Closing the pubsub ends its message channel, so a subscriber that
	// goes away on a quiet feed does not hold the subscription open.
	go func() {
		<-ctx.Done()
		pubsub.Close()
	}()

	return forwardEvents(ctx, pubsub.Channel())
}

func forwardEvents(ctx context.Context, msgs <-chan *redis.Message) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		for msg := range msgs {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events
}

const summaryKeyPrefix = "summary:"

// GetSummary returns the cached summary for a day key (yyyy-mm-dd), or
// ok=false on a miss.
func (c *Client) GetSummary(ctx context.Context, day string) (string, bool, error) {
	value, err := c.Get(ctx, summaryKeyPrefix+day).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "reading summary cache")
	}

	return value, true, nil
}

func (c *Client) SetSummary(ctx context.Context, day, summary string, ttl time.Duration) error {
	if err := c.Set(ctx, summaryKeyPrefix+day, summary, ttl).Err(); err != nil {
		return errors.Wrap(err, "writing summary cache")
	}

	return nil
}
