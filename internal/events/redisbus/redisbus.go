package redisbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-widget/internal/events"
)

// Bus carries weather notifications over Redis pub/sub. The channel name is
// the action name and the message payload is the encoded event body.
type Bus struct {
	client *redis.Client
	logger zerolog.Logger
}

// New creates a Bus on client.
func New(client *redis.Client, logger zerolog.Logger) *Bus {
	return &Bus{
		client: client,
		logger: logger.With().Str("component", "RedisBus").Logger(),
	}
}

// Publish sends event to its action channel.
func (b *Bus) Publish(ctx context.Context, event events.Event) error {
	action, body, err := events.Encode(event)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, action, body).Err(); err != nil {
		b.logger.Error().
			Ctx(ctx).
			Str("channel", action).
			Err(err).
			Msg("publish failed")
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe listens on both action channels and calls handler for each
// decoded message until the subscription is closed.
func (b *Bus) Subscribe(ctx context.Context, handler events.Handler) (events.Subscription, error) {
	ps := b.client.Subscribe(ctx, events.Actions()...)
	// Receive blocks until the subscription is confirmed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	sub := &subscription{ps: ps}
	go b.loop(ps.Channel(), handler)

	b.logger.Info().Strs("channels", events.Actions()).Msg("subscribed")
	return sub, nil
}

func (b *Bus) loop(ch <-chan *redis.Message, handler events.Handler) {
	for msg := range ch {
		ev, err := events.Decode(msg.Channel, []byte(msg.Payload))
		if err != nil {
			b.logger.Warn().
				Str("channel", msg.Channel).
				Err(err).
				Msg("dropping message")
			continue
		}
		handler(ev)
	}
	b.logger.Debug().Msg("receive loop stopped")
}

type subscription struct {
	ps   *redis.PubSub
	once sync.Once
	err  error
}

// Close closes the pub/sub connection; the receive loop ends on its own.
func (s *subscription) Close() error {
	s.once.Do(func() { s.err = s.ps.Close() })
	return s.err
}
