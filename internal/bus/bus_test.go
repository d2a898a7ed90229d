package bus

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, ch <-chan []byte) Event {
	t.Helper()
	select {
	case data := <-ch:
		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker()
	ctx := context.Background()

	a, cancelA, err := b.Subscribe(ctx, Completions)
	require.NoError(t, err)
	c, cancelC, err := b.Subscribe(ctx, Completions)
	require.NoError(t, err)
	other, cancelOther, err := b.Subscribe(ctx, Chat)
	require.NoError(t, err)
	defer cancelOther()

	require.NoError(t, b.Publish(ctx, Completions, NewEvent("challenge_completed", map[string]string{"user_id": "u1"})))

	assert.Equal(t, "challenge_completed", receive(t, a).Type)
	assert.Equal(t, "challenge_completed", receive(t, c).Type)
	select {
	case <-other:
		t.Fatal("event leaked to another channel")
	default:
	}

	cancelA()
	cancelA()
	_, open := <-a
	assert.False(t, open, "cancel closes the subscription")
	assert.Equal(t, 1, b.Subscribers(Completions))

	cancelC()
	assert.Equal(t, 0, b.Subscribers(Completions))
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ctx := context.Background()
	ch, cancel, err := b.Subscribe(ctx, Chat)
	require.NoError(t, err)
	defer cancel()

	for range subscriberBuffer + 10 {
		require.NoError(t, b.Publish(ctx, Chat, NewEvent("message", nil)))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestBrokerClose(t *testing.T) {
	b := NewBroker()
	ch, cancel, err := b.Subscribe(context.Background(), Presence)
	require.NoError(t, err)
	require.NoError(t, b.Close())
	_, open := <-ch
	assert.False(t, open)
	cancel()
}

func TestRedis(t *testing.T) {
	url := os.Getenv("CLASICO_TEST_REDIS_URL")
	if url == "" {
		t.Skip("CLASICO_TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	defer client.Close()

	r := NewRedis(client)
	ctx := context.Background()
	ch, cancel, err := r.Subscribe(ctx, Completions)
	require.NoError(t, err)

	require.NoError(t, r.Publish(ctx, Completions, NewEvent("challenge_completed", nil)))
	assert.Equal(t, "challenge_completed", receive(t, ch).Type)

	cancel()
	for range ch {
	}
}

func TestAMQP(t *testing.T) {
	url := os.Getenv("CLASICO_TEST_AMQP_URL")
	if url == "" {
		t.Skip("CLASICO_TEST_AMQP_URL not set")
	}
	a, err := DialAMQP(url)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	ch, cancel, err := a.Subscribe(ctx, Completions)
	require.NoError(t, err)

	require.NoError(t, a.Publish(ctx, Completions, NewEvent("challenge_completed", nil)))
	assert.Equal(t, "challenge_completed", receive(t, ch).Type)

	cancel()
	for range ch {
	}
}
