package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"safepath-server/internal/domain"
	"safepath-server/internal/interfaces"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ExchangeStoryEvents is the fanout exchange story lifecycle events go to.
const ExchangeStoryEvents = "story_events"

var _ interfaces.StoryEventPublisher = (*RabbitMQStoryEventPublisher)(nil)

// RabbitMQStoryEventPublisher publishes story lifecycle events to RabbitMQ.
// The connection is owned by the caller; this type only manages its channel.
type RabbitMQStoryEventPublisher struct {
	conn   *amqp091.Connection
	ch     *amqp091.Channel
	logger *zap.Logger
}

// NewRabbitMQStoryEventPublisher opens a channel and declares the durable
// story_events fanout exchange.
func NewRabbitMQStoryEventPublisher(conn *amqp091.Connection, logger *zap.Logger) (*RabbitMQStoryEventPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}
	log := logger.Named("StoryEventPublisher")

	ch, err := conn.Channel()
	if err != nil {
		log.Error("Failed to open a channel", zap.Error(err))
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeStoryEvents, // name
		"fanout",            // type
		true,                // durable
		false,               // auto-deleted
		false,               // internal
		false,               // no-wait
		nil,                 // arguments
	)
	if err != nil {
		_ = ch.Close()
		log.Error("Failed to declare exchange", zap.String("exchange", ExchangeStoryEvents), zap.Error(err))
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", ExchangeStoryEvents, err)
	}

	log.Info("Story events exchange declared", zap.String("exchange", ExchangeStoryEvents))
	return &RabbitMQStoryEventPublisher{conn: conn, ch: ch, logger: log}, nil
}

// PublishStoryPublished emits a story.published event.
func (p *RabbitMQStoryEventPublisher) PublishStoryPublished(ctx context.Context, event domain.StoryPublishedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal story published event", zap.Error(err), zap.String("storyID", event.StoryID.String()))
		return fmt.Errorf("failed to marshal story published event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		ExchangeStoryEvents, // exchange
		"story.published",   // routing key (informational for fanout)
		false,               // mandatory
		false,               // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish story published event", zap.Error(err), zap.String("storyID", event.StoryID.String()))
		return fmt.Errorf("failed to publish story published event: %w", err)
	}

	p.logger.Debug("Story published event emitted", zap.String("storyID", event.StoryID.String()))
	return nil
}

// Close releases the channel.
func (p *RabbitMQStoryEventPublisher) Close() error {
	return p.ch.Close()
}

var _ interfaces.StoryEventPublisher = (*NoopStoryEventPublisher)(nil)

// NoopStoryEventPublisher is used when RabbitMQ is not configured.
type NoopStoryEventPublisher struct{}

// PublishStoryPublished discards the event.
func (NoopStoryEventPublisher) PublishStoryPublished(context.Context, domain.StoryPublishedEvent) error {
	return nil
}
