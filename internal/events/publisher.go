package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kamermarket/checkout-service-go/internal/order"
)

const OrderCreatedQueue = "order.created"

func MustDialRabbit(url string) *amqp.Connection {
	if url == "" {
		url = os.Getenv("RABBITMQ_URL")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Fatalf("connect to RabbitMQ: %v", err)
	}
	return conn
}

// Publisher emits checkout events. It declares its queues up front so publish
// never fails due to missing infra.
type Publisher struct {
	ch  *amqp.Channel
	seq SequenceRepository // optional
}

func NewPublisher(conn *amqp.Connection, seq SequenceRepository) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	_, err = ch.QueueDeclare(OrderCreatedQueue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare %s: %w", OrderCreatedQueue, err)
	}

	return &Publisher{ch: ch, seq: seq}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, o *order.Order) error {
	var seq int64
	if p.seq != nil {
		var err error
		seq, err = p.seq.NextSequence(ctx, o.ID)
		if err != nil {
			return fmt.Errorf("sequence for order %s: %w", o.ID, err)
		}
	}

	ev := BuildOrderCreatedEnvelope(o, seq, EnvelopeMetadata{})

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderCreated: %w", err)
	}

	return p.publishJSON(ctx, OrderCreatedQueue, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",         // default exchange
		routingKey, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
