package notify

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{Type: OrdersCreated}))
}

func TestRedisPublisherUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()

	err := NewRedis(client, "orders.events").Publish(context.Background(), Event{Type: OrderDeleted, TableID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orders.events")
}

// Needs a running Redis; set REDIS_ADDR to enable.
func TestRedisPublisherRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	channel := "orders.events.test." + uuid.NewString()
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	want := Event{Type: OrdersCreated, TableID: 4, OrderIDs: []uuid.UUID{uuid.New()}, At: time.Now().UTC().Truncate(time.Millisecond)}
	require.NoError(t, NewRedis(client, channel).Publish(ctx, want))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var got Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, want.Type, got.Type)
	assert.Equal(t, want.TableID, got.TableID)
	assert.Equal(t, want.OrderIDs, got.OrderIDs)
	assert.True(t, want.At.Equal(got.At))
}
