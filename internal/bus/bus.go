// Package bus is the fire-and-forget event bus: in-process, Redis pub/sub or
// RabbitMQ fanout exchanges behind one interface.
package bus

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Channels.
const (
	Completions = "completions"
	Chat        = "chat"
	Presence    = "presence"
)

type Event struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

// NewEvent stamps an event with the current time.
func NewEvent(typ string, payload any) Event {
	return Event{Type: typ, Payload: payload, At: time.Now().UTC()}
}

type Bus interface {
	Publish(ctx context.Context, channel string, ev Event) error
	// Subscribe returns JSON-encoded events published on channel until the
	// returned cancel func is called. Slow subscribers miss events.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
	Close() error
}

const subscriberBuffer = 16

// Broker is an in-process Bus.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

func (b *Broker) Subscribe(_ context.Context, channel string) (<-chan []byte, func(), error) {
	ch := make(chan []byte, subscriberBuffer)
	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[chan []byte]struct{})
	}
	b.subs[channel][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[channel][ch]; !ok {
				// Already closed by Close.
				return
			}
			delete(b.subs[channel], ch)
			if len(b.subs[channel]) == 0 {
				delete(b.subs, channel)
			}
			close(ch)
		})
	}
	return ch, cancel, nil
}

func (b *Broker) Publish(_ context.Context, channel string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	b.mu.RLock()
	for ch := range b.subs[channel] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
	return nil
}

// Subscribers returns the number of live subscriptions on channel.
func (b *Broker) Subscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[channel])
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, subs := range b.subs {
		for ch := range subs {
			close(ch)
		}
	}
	b.subs = make(map[string]map[chan []byte]struct{})
	return nil
}

// pump copies messages from in to a buffered channel, dropping when the
// reader falls behind. The returned channel closes when in does.
func pump[T any](in <-chan T, payload func(T) []byte) <-chan []byte {
	out := make(chan []byte, subscriberBuffer)
	go func() {
		defer close(out)
		for msg := range in {
			select {
			case out <- payload(msg):
			default:
			}
		}
	}()
	return out
}
