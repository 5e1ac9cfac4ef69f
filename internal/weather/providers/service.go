package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-widget/internal/weather"
)

// ServiceProvider reads the weather service's resources over HTTP. It
// implements weather.Provider and weather.PackageManager.
type ServiceProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

// NewServiceProvider creates a ServiceProvider rooted at baseURL.
func NewServiceProvider(client *http.Client, baseURL string, breaker BreakerConfig, logger zerolog.Logger) *ServiceProvider {
	return &ServiceProvider{
		name:    "weather-service",
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: newBreaker("weather-service", breaker),
		logger:  logger.With().Str("component", "ServiceProvider").Logger(),
	}
}

// WithBackoff overrides the retry policy.
func (p *ServiceProvider) WithBackoff(b BackoffConfig) *ServiceProvider {
	p.httpCfg.Backoff = b
	return p
}

func (p *ServiceProvider) Name() string {
	return p.name
}

// weatherPayload is a weather row on the wire; numbers are null when unknown.
type weatherPayload struct {
	City                  string   `json:"city"`
	WindSpeed             *float64 `json:"wind_speed"`
	WindDirection         int      `json:"wind_direction"`
	ConditionCode         int      `json:"condition_code"`
	Temperature           *float64 `json:"temperature"`
	Humidity              string   `json:"humidity"`
	Condition             string   `json:"condition"`
	ForecastLow           *float64 `json:"forecast_low"`
	ForecastHigh          *float64 `json:"forecast_high"`
	ForecastCondition     string   `json:"forecast_condition"`
	ForecastConditionCode int      `json:"forecast_condition_code"`
	TimeStamp             string   `json:"time_stamp"`
	ForecastDate          string   `json:"forecast_date"`
	PinWheel              string   `json:"pin_wheel"`
	ForecastSummary       string   `json:"forecast_summary"`
}

func (w weatherPayload) row() weather.WeatherRow {
	return weather.WeatherRow{
		City:                  w.City,
		WindSpeed:             orNaN(w.WindSpeed),
		WindDirection:         w.WindDirection,
		ConditionCode:         w.ConditionCode,
		Temperature:           orNaN(w.Temperature),
		Humidity:              w.Humidity,
		Condition:             w.Condition,
		ForecastLow:           orNaN(w.ForecastLow),
		ForecastHigh:          orNaN(w.ForecastHigh),
		ForecastCondition:     w.ForecastCondition,
		ForecastConditionCode: w.ForecastConditionCode,
		TimeStamp:             w.TimeStamp,
		ForecastDate:          w.ForecastDate,
		PinWheel:              w.PinWheel,
		ForecastSummary:       w.ForecastSummary,
	}
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// QueryWeather fetches GET {base}/weather.
func (p *ServiceProvider) QueryWeather(ctx context.Context) ([]weather.WeatherRow, error) {
	var payload struct {
		Rows []weatherPayload `json:"rows"`
	}
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.logger, p.baseURL+"/weather", &payload); err != nil {
		return nil, err
	}

	rows := make([]weather.WeatherRow, 0, len(payload.Rows))
	for _, r := range payload.Rows {
		rows = append(rows, r.row())
	}
	return rows, nil
}

// QuerySettings fetches GET {base}/settings.
func (p *ServiceProvider) QuerySettings(ctx context.Context) ([]weather.SettingsRow, error) {
	var payload struct {
		Rows []weather.SettingsRow `json:"rows"`
	}
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.logger, p.baseURL+"/settings", &payload); err != nil {
		return nil, err
	}
	return payload.Rows, nil
}

// EnabledState fetches GET {base}/packages/{name}. A 404 means not installed.
func (p *ServiceProvider) EnabledState(ctx context.Context, packageName string) (weather.EnabledState, error) {
	var payload struct {
		EnabledState int `json:"enabled_state"`
	}
	u := p.baseURL + "/packages/" + url.PathEscape(packageName)
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.logger, u, &payload); err != nil {
		if errors.Is(err, errNotFound) {
			return 0, fmt.Errorf("%w: %s", weather.ErrPackageNotFound, packageName)
		}
		return 0, err
	}
	return weather.EnabledState(payload.EnabledState), nil
}
