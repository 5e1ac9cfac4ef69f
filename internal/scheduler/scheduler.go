package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-widget/internal/events"
	"github.com/i474232898/weather-widget/internal/weather"
)

const (
	defaultInterval = 15 * time.Minute
	queryTimeout    = 30 * time.Second
)

// Querier is the part of the weather client the scheduler drives.
type Querier interface {
	Query(ctx context.Context) error
}

// Scheduler is an event source that polls the weather service while it has
// a subscriber and turns each query outcome into an event.
type Scheduler struct {
	querier  Querier
	interval time.Duration
	logger   zerolog.Logger
}

// New creates a new Scheduler.
func New(querier Querier, interval time.Duration, logger zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Scheduler{
		querier:  querier,
		interval: interval,
		logger:   logger.With().Str("component", "Scheduler").Logger(),
	}
}

// Subscribe schedules the periodic query job and starts it. The first run
// happens immediately.
func (s *Scheduler) Subscribe(_ context.Context, handler events.Handler) (events.Subscription, error) {
	sched := gocron.NewScheduler(time.UTC)
	sub := &subscription{scheduler: sched}

	_, err := sched.Every(s.interval).SingletonMode().Do(func() {
		if sub.closed.Load() {
			return
		}
		s.logger.Debug().Msg("running weather query job")

		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()

		ev := outcome(s.querier.Query(ctx))
		if sub.closed.Load() {
			return
		}
		handler(ev)
	})
	if err != nil {
		return nil, err
	}

	sched.StartAsync()
	s.logger.Info().Dur("interval", s.interval).Msg("polling started")
	return sub, nil
}

// outcome maps a query result onto the event the weather service would send.
func outcome(err error) events.Event {
	switch {
	case err == nil:
		return events.Updated()
	case errors.Is(err, weather.ErrServiceUnavailable):
		return events.Error(events.ReasonDisabled)
	default:
		return events.Error(events.ReasonNetwork)
	}
}

type subscription struct {
	scheduler *gocron.Scheduler
	closed    atomic.Bool
	once      sync.Once
}

// Close stops future runs. Stopping waits for a running job, so it happens
// in the background: Close may be reached from inside the job's handler.
func (s *subscription) Close() error {
	s.once.Do(func() {
		s.closed.Store(true)
		go s.scheduler.Stop()
	})
	return nil
}
