package amqpbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wagslane/go-rabbitmq"

	"github.com/i474232898/weather-widget/internal/events"
)

// Bus carries weather notifications over a RabbitMQ exchange. The routing key
// is the action name and the body is the encoded event payload.
type Bus struct {
	conn     *rabbitmq.Conn
	exchange string
	logger   zerolog.Logger
}

// New creates a Bus publishing to and consuming from exchange.
func New(conn *rabbitmq.Conn, exchange string, logger zerolog.Logger) *Bus {
	return &Bus{
		conn:     conn,
		exchange: exchange,
		logger:   logger.With().Str("component", "AMQPBus").Logger(),
	}
}

// NewPublisher returns a Publisher bound to the bus exchange.
func (b *Bus) NewPublisher() (*Publisher, error) {
	pub, err := rabbitmq.NewPublisher(
		b.conn,
		rabbitmq.WithPublisherOptionsExchangeName(b.exchange),
		rabbitmq.WithPublisherOptionsExchangeDeclare,
		rabbitmq.WithPublisherOptionsExchangeDurable,
	)
	if err != nil {
		return nil, fmt.Errorf("amqp publisher: %w", err)
	}
	return &Publisher{pub: pub, exchange: b.exchange, logger: b.logger}, nil
}

// Subscribe declares a private queue bound to both actions and delivers
// decoded events to handler until the subscription is closed.
func (b *Bus) Subscribe(_ context.Context, handler events.Handler) (events.Subscription, error) {
	queue := "weather-widget." + uuid.NewString()

	opts := []func(*rabbitmq.ConsumerOptions){
		rabbitmq.WithConsumerOptionsExchangeName(b.exchange),
		rabbitmq.WithConsumerOptionsExchangeDeclare,
		rabbitmq.WithConsumerOptionsExchangeDurable,
		rabbitmq.WithConsumerOptionsQueueAutoDelete,
		rabbitmq.WithConsumerOptionsQueueExclusive,
	}
	for _, action := range events.Actions() {
		opts = append(opts, rabbitmq.WithConsumerOptionsRoutingKey(action))
	}

	consumer, err := rabbitmq.NewConsumer(b.conn, queue, opts...)
	if err != nil {
		return nil, fmt.Errorf("amqp consumer: %w", err)
	}

	go func() {
		err := consumer.Run(func(d rabbitmq.Delivery) rabbitmq.Action {
			ev, err := events.Decode(d.RoutingKey, d.Body)
			if err != nil {
				b.logger.Warn().
					Str("routingKey", d.RoutingKey).
					Err(err).
					Msg("discarding delivery")
				return rabbitmq.NackDiscard
			}
			handler(ev)
			return rabbitmq.Ack
		})
		if err != nil {
			b.logger.Error().Err(err).Str("queue", queue).Msg("consumer stopped")
		}
	}()

	b.logger.Info().Str("queue", queue).Str("exchange", b.exchange).Msg("subscribed")
	return &subscription{consumer: consumer}, nil
}

type subscription struct {
	consumer *rabbitmq.Consumer
	once     sync.Once
}

// Close stops the consumer without waiting for an in-flight delivery, which
// may itself be the caller.
func (s *subscription) Close() error {
	s.once.Do(func() { go s.consumer.Close() })
	return nil
}

// Publisher publishes weather notifications to the bus exchange.
type Publisher struct {
	pub      *rabbitmq.Publisher
	exchange string
	logger   zerolog.Logger
}

// Publish sends event with its action as routing key.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	action, body, err := events.Encode(event)
	if err != nil {
		return err
	}
	if err := p.pub.PublishWithContext(
		ctx,
		body,
		[]string{action},
		rabbitmq.WithPublishOptionsContentType("application/json"),
		rabbitmq.WithPublishOptionsExchange(p.exchange),
	); err != nil {
		p.logger.Error().Err(err).Str("routingKey", action).Msg("publish failed")
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// Close releases the publisher channel.
func (p *Publisher) Close() {
	p.pub.Close()
}
