// pkg/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
	Close()
}

// NoopPublisher drops events. It is used when no broker is configured or the broker is
// unreachable at startup.
type NoopPublisher struct {
	Logger *slog.Logger
}

func (p *NoopPublisher) Publish(ctx context.Context, routingKey string, body interface{}) error {
	if p.Logger != nil {
		p.Logger.Debug("event publish skipped", "routing_key", routingKey)
	}
	return nil
}

func (p *NoopPublisher) Close() {}

// RabbitPublisher publishes JSON events to a durable topic exchange.
type RabbitPublisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	logger   *slog.Logger
}

// NewRabbitPublisher dials the broker and declares the exchange.
func NewRabbitPublisher(amqpURL, exchange string, logger *slog.Logger) (*RabbitPublisher, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	p := &RabbitPublisher{conn: conn, channel: ch, exchange: exchange, logger: logger}
	if err := p.declare(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (p *RabbitPublisher) declare() error {
	if err := p.channel.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", p.exchange, err)
	}
	return nil
}

// Publish sends body as JSON with the given routing key. A failed publish reopens the
// channel and retries once.
func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", routingKey, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	}
	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	if err == nil {
		return nil
	}

	p.logger.Warn("publish failed; reopening channel", "routing_key", routingKey, "error", err)
	ch, chErr := p.conn.Channel()
	if chErr != nil {
		return fmt.Errorf("failed to reopen rabbitmq channel: %w", errors.Join(err, chErr))
	}
	p.channel = ch
	if err := p.declare(); err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
}

// Close closes the channel and the connection.
func (p *RabbitPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", fmt.Errorf("invalid AMQP URL: %w", err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewPublisher returns a RabbitPublisher when amqpURL is set and reachable, and a
// NoopPublisher otherwise.
func NewPublisher(amqpURL, exchange string, logger *slog.Logger) Publisher {
	if strings.TrimSpace(amqpURL) == "" {
		logger.Info("RABBITMQ_URL not set; events disabled")
		return &NoopPublisher{Logger: logger}
	}
	p, err := NewRabbitPublisher(amqpURL, exchange, logger)
	if err != nil {
		logger.Warn("rabbitmq unavailable; events disabled", "error", err)
		return &NoopPublisher{Logger: logger}
	}
	return p
}
