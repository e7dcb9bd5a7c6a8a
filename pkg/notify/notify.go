// Package notify publishes order events to interested listeners such as a
// kitchen display.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType names what happened to the orders of a table.
type EventType string

// Event types.
const (
	OrdersCreated EventType = "orders.created"
	OrderDeleted  EventType = "order.deleted"
)

// Event describes a change to a table's orders.
type Event struct {
	Type     EventType   `json:"type"`
	TableID  uint32      `json:"table_id"`
	OrderIDs []uuid.UUID `json:"order_ids"`
	At       time.Time   `json:"at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// RedisPublisher publishes events as JSON on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedis creates a publisher on the given channel.
func NewRedis(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}
