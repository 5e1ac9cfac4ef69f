package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/wagslane/go-rabbitmq"

	httpapi "github.com/i474232898/weather-widget/internal/api/http"
	"github.com/i474232898/weather-widget/internal/config"
	"github.com/i474232898/weather-widget/internal/events"
	"github.com/i474232898/weather-widget/internal/events/amqpbus"
	"github.com/i474232898/weather-widget/internal/events/redisbus"
	"github.com/i474232898/weather-widget/internal/icons"
	"github.com/i474232898/weather-widget/internal/logger"
	"github.com/i474232898/weather-widget/internal/metrics"
	"github.com/i474232898/weather-widget/internal/scheduler"
	"github.com/i474232898/weather-widget/internal/store"
	"github.com/i474232898/weather-widget/internal/weather"
	"github.com/i474232898/weather-widget/internal/weather/providers"
	"github.com/i474232898/weather-widget/internal/weather/providers/sqlite"
	"github.com/i474232898/weather-widget/internal/widget"
)

const serviceName = "weather-widget"

// backend is a provider that is also the package manager.
type backend interface {
	weather.Provider
	weather.PackageManager
}

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.New(logger.Config{
		FilePath: cfg.Log.Path,
		Level:    cfg.Log.Level,
		NoColor:  cfg.Log.NoColor,
	}, serviceName)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	// Weather service backend.
	provider, closeProvider, err := newBackend(cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to open weather provider")
	}
	closers = append(closers, closeProvider)

	m := metrics.New(prometheus.DefaultRegisterer)

	client := weather.NewClient(
		provider,
		provider,
		icons.NewPacks(os.DirFS(cfg.Service.IconPacksDir)),
		store.NewMemoryStore(),
		weather.Options{
			ServicePackage:     cfg.Service.Package,
			DefaultIconPackage: cfg.Service.DefaultIconPackage,
			DefaultIconPrefix:  cfg.Service.DefaultIconPrefix,
			Logger:             lg,
			Recorder:           m,
		},
	)

	// Update channel the registry subscribes to.
	source, publisher, closeSource, err := newEventSource(cfg, client, lg)
	if err != nil {
		lg.Fatal().Err(err).Str("source", cfg.Events.Source).Msg("failed to set up event source")
	}
	closers = append(closers, closeSource)

	registry := events.NewRegistry(source, lg, m)

	view := widget.New(client, registry, widget.Preferences{
		ShowWeatherText:  cfg.Widget.ShowWeatherText,
		ShowWindInfo:     cfg.Widget.ShowWindInfo,
		ShowHumidityInfo: cfg.Widget.ShowHumidityInfo,
	}, lg)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	if !client.IsServiceInstalled(startCtx) {
		lg.Warn().Str("package", cfg.Service.Package).Msg("weather service not installed")
	}
	if err := view.EnableUpdates(startCtx); err != nil {
		lg.Error().Err(err).Msg("failed to enable widget updates")
	}
	cancelStart()
	closers = append(closers, func() {
		if err := view.DisableUpdates(); err != nil {
			lg.Warn().Err(err).Msg("failed to disable widget updates")
		}
	})

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Client:    client,
		Widget:    view,
		Registry:  registry,
		Publisher: publisher,
		Metrics:   promhttp.Handler(),
	})

	go func() {
		lg.Info().Str("port", cfg.Server.Port).Msg("http server starting")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			lg.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("error during shutdown")
	}
}

func newBackend(cfg *config.AppConfig, lg zerolog.Logger) (backend, func(), error) {
	switch cfg.Provider.Kind {
	case config.ProviderHTTP:
		httpClient := &http.Client{Timeout: cfg.Provider.Timeout}
		p := providers.NewServiceProvider(httpClient, cfg.Provider.BaseURL, providers.BreakerConfig{
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         cfg.Breaker.Interval,
			Timeout:          cfg.Breaker.Timeout,
			FailureThreshold: cfg.Breaker.FailureThreshold,
		}, lg)
		return p, func() {}, nil
	case config.ProviderSQLite:
		s, err := sqlite.NewSQLite(cfg.Provider.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				lg.Warn().Err(err).Msg("failed to close sqlite store")
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider.Kind)
	}
}

// newEventSource returns the configured update channel. The publisher is nil
// when events cannot be injected into it.
func newEventSource(cfg *config.AppConfig, client *weather.Client, lg zerolog.Logger) (events.Source, events.Publisher, func(), error) {
	switch cfg.Events.Source {
	case config.SourceMemory:
		bus := events.NewBus()
		return bus, bus, func() {}, nil

	case config.SourcePoll:
		return scheduler.New(client, cfg.Events.PollInterval, lg), nil, func() {}, nil

	case config.SourceRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		bus := redisbus.New(rdb, lg)
		return bus, bus, func() {
			if err := rdb.Close(); err != nil {
				lg.Warn().Err(err).Msg("failed to close redis client")
			}
		}, nil

	case config.SourceAMQP:
		conn, err := rabbitmq.NewConn(cfg.RabbitMQ.URL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("rabbitmq connect: %w", err)
		}
		bus := amqpbus.New(conn, cfg.RabbitMQ.Exchange, lg)
		pub, err := bus.NewPublisher()
		if err != nil {
			_ = conn.Close()
			return nil, nil, nil, err
		}
		return bus, pub, func() {
			pub.Close()
			if err := conn.Close(); err != nil {
				lg.Warn().Err(err).Msg("failed to close rabbitmq connection")
			}
		}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown event source %q", cfg.Events.Source)
	}
}
