package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"supplier-service/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StatusEventQueue carries supplier status transitions to downstream
// services (procurement, notifications).
const StatusEventQueue = "supplier_status_events"

const (
	publishMaxAttempts = 5
	publishRetryDelay  = 2 * time.Second
	publishTimeout     = 10 * time.Second
)

// StatusPublisher publishes supplier status events to RabbitMQ. Delivery is
// asynchronous with bounded retries: a broker outage slows nothing down and
// never fails the request that triggered the event. A single goroutine owns
// the AMQP channel, which is not safe for concurrent publishes.
type StatusPublisher struct {
	conn              *RabbitMQConnection
	pending           chan []byte
	done              chan struct{}
	messagesPublished atomic.Int64
	messagesFailed    atomic.Int64
}

// NewStatusPublisher declares the durable status queue and starts the
// delivery loop.
func NewStatusPublisher(conn *RabbitMQConnection) (*StatusPublisher, error) {
	_, err := conn.Channel.QueueDeclare(
		StatusEventQueue, // queue name
		true,             // durable
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", StatusEventQueue, err)
	}

	p := &StatusPublisher{
		conn:    conn,
		pending: make(chan []byte, 256),
		done:    make(chan struct{}),
	}

	go p.deliverLoop()

	slog.Info("Status event publisher started", "queue", StatusEventQueue)
	return p, nil
}

// PublishStatusChange enqueues the event for delivery. It only returns an
// error when the event cannot be serialized or the buffer is full; both are
// logged and counted, never propagated into workflow writes.
func (p *StatusPublisher) PublishStatusChange(ctx context.Context, event models.SupplierStatusEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.messagesFailed.Add(1)
		return fmt.Errorf("failed to marshal status event: %w", err)
	}

	select {
	case p.pending <- body:
		return nil
	default:
		p.messagesFailed.Add(1)
		slog.Error("Status event buffer full, dropping event",
			"queue", StatusEventQueue,
			"supplier_id", event.SupplierID,
			"new_status", event.NewStatus)
		return fmt.Errorf("status event buffer full")
	}
}

func (p *StatusPublisher) deliverLoop() {
	for body := range p.pending {
		p.deliverWithRetry(body)
	}
	close(p.done)
}

func (p *StatusPublisher) deliverWithRetry(body []byte) {
	for attempt := 1; attempt <= publishMaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := p.conn.Channel.PublishWithContext(
			ctx,
			"",               // exchange
			StatusEventQueue, // routing key (queue name)
			false,            // mandatory
			false,            // immediate
			amqp.Publishing{
				DeliveryMode: amqp.Persistent,
				ContentType:  "application/json",
				Body:         body,
				Timestamp:    time.Now(),
			},
		)
		cancel()

		if err == nil {
			p.messagesPublished.Add(1)
			slog.Info("Supplier status event published", "queue", StatusEventQueue, "attempt", attempt)
			return
		}

		slog.Warn("Failed to publish status event",
			"error", err,
			"attempt", attempt,
			"max_attempts", publishMaxAttempts)

		if attempt < publishMaxAttempts {
			time.Sleep(publishRetryDelay)
		}
	}

	p.messagesFailed.Add(1)
	slog.Error("Dropping status event after repeated publish failures", "queue", StatusEventQueue)
}

// Stop drains queued events and stops the delivery loop.
func (p *StatusPublisher) Stop() {
	close(p.pending)
	<-p.done
}

// PublisherHealthStatus represents the health status of the publisher
type PublisherHealthStatus struct {
	IsHealthy         bool  `json:"is_healthy"`
	MessagesPublished int64 `json:"messages_published"`
	MessagesFailed    int64 `json:"messages_failed"`
	QueuedEvents      int   `json:"queued_events"`
}

// HealthCheck returns the health status of the publisher
func (p *StatusPublisher) HealthCheck() PublisherHealthStatus {
	isHealthy := p.conn != nil && p.conn.Connection != nil && !p.conn.Connection.IsClosed()

	return PublisherHealthStatus{
		IsHealthy:         isHealthy,
		MessagesPublished: p.messagesPublished.Load(),
		MessagesFailed:    p.messagesFailed.Load(),
		QueuedEvents:      len(p.pending),
	}
}
