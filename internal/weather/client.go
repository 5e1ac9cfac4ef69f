package weather

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrServiceUnavailable is returned when the weather service is not installed or not enabled.
	ErrServiceUnavailable = errors.New("weather service unavailable")
	// ErrQueryFailed is returned when a provider read fails or returns an unexpected shape.
	ErrQueryFailed = errors.New("weather query failed")
)

// Recorder receives client-level measurements. A nil Recorder is allowed.
type Recorder interface {
	QueryCompleted(result string)
	IconFallback(kind string)
}

// Options configures a Client. Zero values fall back to the service defaults.
type Options struct {
	ServicePackage     string
	DefaultIconPackage string
	DefaultIconPrefix  string
	Logger             zerolog.Logger
	Recorder           Recorder
}

// Client reads weather data and settings from the external weather service
// and keeps the latest snapshot in its cache.
type Client struct {
	provider Provider
	packages PackageManager
	cache    Cache
	icons    *iconPack
	source   IconSource

	servicePkg    string
	defaultPkg    string
	defaultPrefix string

	log zerolog.Logger
	rec Recorder

	// queryMu keeps at most one query in flight.
	queryMu sync.Mutex
}

// NewClient creates a new Client.
func NewClient(provider Provider, packages PackageManager, icons IconSource, cache Cache, opts Options) *Client {
	if opts.ServicePackage == "" {
		opts.ServicePackage = ServicePackage
	}
	if opts.DefaultIconPackage == "" {
		opts.DefaultIconPackage = DefaultIconPackage
	}
	if opts.DefaultIconPrefix == "" {
		opts.DefaultIconPrefix = DefaultIconPrefix
	}
	log := opts.Logger.With().Str("component", "WeatherClient").Logger()

	return &Client{
		provider:      provider,
		packages:      packages,
		cache:         cache,
		icons:         newIconPack(icons, opts.DefaultIconPackage, opts.DefaultIconPrefix, log),
		source:        icons,
		servicePkg:    opts.ServicePackage,
		defaultPkg:    opts.DefaultIconPackage,
		defaultPrefix: opts.DefaultIconPrefix,
		log:           log,
		rec:           opts.Recorder,
	}
}

// IsServiceInstalled reports whether the weather service package is present
// and not disabled. Lookup failures count as not installed.
func (c *Client) IsServiceInstalled(ctx context.Context) bool {
	if c.packages == nil {
		return false
	}
	state, err := c.packages.EnabledState(ctx, c.servicePkg)
	if err != nil {
		c.log.Debug().Err(err).Str("package", c.servicePkg).Msg("service package lookup failed")
		return false
	}
	return state != StateDisabled && state != StateDisabledUser
}

// IsEnabled reports the enabled flag of the service settings. It fails closed.
func (c *Client) IsEnabled(ctx context.Context) bool {
	if !c.IsServiceInstalled(ctx) {
		return false
	}
	rows, err := c.provider.QuerySettings(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("isEnabled: settings query failed")
		return false
	}
	if len(rows) != 1 {
		return false
	}
	return rows[0].Settings().Enabled
}

// Query refreshes the cached snapshot. When the service is disabled the cache
// is cleared without touching the provider. Any read failure clears the cache
// and leaves the icon pack as it was. Errors are already logged.
func (c *Client) Query(ctx context.Context) error {
	c.queryMu.Lock()
	defer c.queryMu.Unlock()

	if !c.IsEnabled(ctx) {
		c.log.Warn().Msg("query while disabled")
		c.cache.Clear()
		c.record("disabled")
		return ErrServiceUnavailable
	}

	snapshot, err := c.read(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("query failed")
		c.cache.Clear()
		c.record("error")
		return fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	iconPack := ""
	if snapshot == nil {
		c.cache.Clear()
	} else {
		c.cache.Store(snapshot)
		iconPack = snapshot.IconPack
		c.log.Debug().Stringer("snapshot", snapshot).Msg("query completed")
	}

	c.icons.update(iconPack)
	c.record("ok")
	return nil
}

// read performs both provider reads and assembles a snapshot. A nil snapshot
// with a nil error means the weather table was empty.
func (c *Client) read(ctx context.Context) (*Snapshot, error) {
	rows, err := c.provider.QueryWeather(ctx)
	if err != nil {
		return nil, fmt.Errorf("weather: %w", err)
	}

	settingsRows, err := c.provider.QuerySettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	if len(settingsRows) != 1 {
		return nil, fmt.Errorf("settings: expected 1 row, got %d", len(settingsRows))
	}
	settings := settingsRows[0].Settings()

	if len(rows) == 0 {
		return nil, nil
	}
	return buildSnapshot(rows, settings)
}

func buildSnapshot(rows []WeatherRow, settings Settings) (*Snapshot, error) {
	current := rows[0]
	ts, err := strconv.ParseInt(strings.TrimSpace(current.TimeStamp), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("weather: invalid time_stamp %q: %w", current.TimeStamp, err)
	}

	forecasts := make([]DayForecast, 0, len(rows)-1)
	for _, r := range rows[1:] {
		forecasts = append(forecasts, DayForecast{
			Low:           FormatValue(r.ForecastLow),
			High:          FormatValue(r.ForecastHigh),
			ConditionCode: r.ForecastConditionCode,
			Condition:     r.ForecastCondition,
			Date:          r.ForecastDate,
			Summary:       r.ForecastSummary,
		})
	}

	return &Snapshot{
		City:          current.City,
		WindSpeed:     FormatValue(current.WindSpeed),
		WindDirection: strconv.Itoa(current.WindDirection) + "°",
		ConditionCode: current.ConditionCode,
		Temperature:   FormatValue(current.Temperature),
		Humidity:      current.Humidity,
		Condition:     current.Condition,
		Timestamp:     ts,
		PinWheel:      current.PinWheel,
		Forecasts:     forecasts,
		TempUnits:     settings.TemperatureUnit(),
		WindUnits:     settings.WindUnit(),
		Provider:      settings.Provider,
		IconPack:      settings.IconPack,
	}, nil
}

// Cached returns the last cached snapshot, or nil.
func (c *Client) Cached() *Snapshot {
	snapshot, err := c.cache.Load()
	if err != nil {
		return nil
	}
	return snapshot
}

// IconPack reports the icon-pack resolution state with the selected package and prefix.
func (c *Client) IconPack() (IconPackState, string, string) {
	return c.icons.status()
}

// ConditionImage resolves the icon for a condition code. It never fails:
// the code icon, the pack's "na" icon, the default pack's "na" icon and
// finally a placeholder are tried in turn.
func (c *Client) ConditionImage(code int) Image {
	bundle, pkg, prefix := c.icons.active()
	if bundle != nil {
		img, err := bundle.Image(fmt.Sprintf("%s_%d", prefix, code))
		if err == nil {
			return img
		}
		c.log.Warn().Err(err).Int("code", code).Str("package", pkg).Msg("failed to get condition image, using default")

		img, err = bundle.Image(prefix + "_na")
		if err == nil {
			return img
		}
	}
	c.log.Warn().Int("code", code).Msg("failed to get condition image")
	c.fallback("condition")
	return c.defaultConditionImage()
}

func (c *Client) defaultConditionImage() Image {
	if c.source != nil {
		bundle, err := c.source.Open(c.defaultPkg)
		if err == nil && bundle != nil {
			if img, err := bundle.Image(c.defaultPrefix + "_na"); err == nil {
				return img
			}
		}
	}
	c.log.Warn().Str("package", c.defaultPkg).Msg("no default icon package found")
	c.fallback("placeholder")
	return Placeholder()
}

// NamedImage resolves a resource by its exact name in the active icon pack,
// falling back to a placeholder.
func (c *Client) NamedImage(name string) Image {
	bundle, pkg, _ := c.icons.active()
	if bundle != nil {
		img, err := bundle.Image(name)
		if err == nil {
			return img
		}
		c.log.Error().Err(err).Str("name", name).Str("package", pkg).Msg("failed to get resource image")
	}
	c.fallback("placeholder")
	return Placeholder()
}

func (c *Client) record(result string) {
	if c.rec != nil {
		c.rec.QueryCompleted(result)
	}
}

func (c *Client) fallback(kind string) {
	if c.rec != nil {
		c.rec.IconFallback(kind)
	}
}
