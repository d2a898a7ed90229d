package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQP publishes each channel to a fanout exchange of the same name. Every
// subscription gets its own exclusive, auto-deleted queue.
type AMQP struct {
	conn *amqp.Connection

	mu       sync.Mutex
	pub      *amqp.Channel
	declared map[string]bool
}

func DialAMQP(url string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to rabbitmq: %w", err)
	}
	pub, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	return &AMQP{conn: conn, pub: pub, declared: make(map[string]bool)}, nil
}

func declareExchange(ch *amqp.Channel, name string) error {
	return ch.ExchangeDeclare(
		name,     // name
		"fanout", // kind
		false,    // durable
		false,    // delete when unused
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
}

func (a *AMQP) Publish(ctx context.Context, channel string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.declared[channel] {
		if err := declareExchange(a.pub, channel); err != nil {
			return fmt.Errorf("declaring exchange %s: %w", channel, err)
		}
		a.declared[channel] = true
	}
	err = a.pub.PublishWithContext(ctx,
		channel, // exchange
		"",      // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        data,
		})
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", channel, err)
	}
	return nil
}

func (a *AMQP) Subscribe(_ context.Context, channel string) (<-chan []byte, func(), error) {
	ch, err := a.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("opening channel: %w", err)
	}
	fail := func(step string, err error) (<-chan []byte, func(), error) {
		ch.Close()
		return nil, nil, fmt.Errorf("%s for %s: %w", step, channel, err)
	}
	if err := declareExchange(ch, channel); err != nil {
		return fail("declaring exchange", err)
	}
	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fail("declaring queue", err)
	}
	if err := ch.QueueBind(q.Name, "", channel, false, nil); err != nil {
		return fail("binding queue", err)
	}
	msgs, err := ch.Consume(
		q.Name, // queue
		"",     // consumer
		true,   // auto-ack
		true,   // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fail("consuming", err)
	}
	out := pump(msgs, func(d amqp.Delivery) []byte { return d.Body })

	var once sync.Once
	return out, func() { once.Do(func() { ch.Close() }) }, nil
}

func (a *AMQP) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pub.Close()
	return a.conn.Close()
}

var errConnectionClosed = errors.New("rabbitmq connection closed")

// Check reports whether the broker connection is still open.
func (a *AMQP) Check(context.Context) error {
	if a.conn.IsClosed() {
		return errConnectionClosed
	}
	return nil
}
