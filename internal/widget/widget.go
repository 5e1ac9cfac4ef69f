package widget

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-widget/internal/common"
	"github.com/i474232898/weather-widget/internal/events"
	"github.com/i474232898/weather-widget/internal/weather"
)

const (
	windIcon          = "ic_wind_symbol"
	windDirectionIcon = "ic_wind_direction_symbol"
	humidityIcon      = "ic_humidity_symbol"

	refreshTimeout = 30 * time.Second
)

// WeatherClient is what the widget needs from the weather client.
type WeatherClient interface {
	IsEnabled(ctx context.Context) bool
	Query(ctx context.Context) error
	Cached() *weather.Snapshot
	ConditionImage(code int) weather.Image
	NamedImage(name string) weather.Image
}

// Registry is where the widget registers for weather events.
type Registry interface {
	Add(l events.Listener) error
	Remove(l events.Listener) error
}

// Preferences are the display toggles of the widget.
type Preferences struct {
	ShowWeatherText  bool `json:"showWeatherText"`
	ShowWindInfo     bool `json:"showWindInfo"`
	ShowHumidityInfo bool `json:"showHumidityInfo"`
}

// DefaultPreferences shows everything.
func DefaultPreferences() Preferences {
	return Preferences{ShowWeatherText: true, ShowWindInfo: true, ShowHumidityInfo: true}
}

// Panel is the rendered state of the widget. Sections that are hidden are nil.
type Panel struct {
	Visible   bool           `json:"visible"`
	City      string         `json:"city,omitempty"`
	Image     *weather.Image `json:"image,omitempty"`
	Current   *Current       `json:"current,omitempty"`
	Wind      *Wind          `json:"wind,omitempty"`
	Humidity  *Humidity      `json:"humidity,omitempty"`
	Daily     *Daily         `json:"daily,omitempty"`
	UpdatedAt string         `json:"updatedAt,omitempty"`
}

type Current struct {
	Temperature string `json:"temperature"`
	Condition   string `json:"condition"`
}

type Wind struct {
	Speed        string        `json:"speed"`
	Direction    string        `json:"direction"`
	Icon         weather.Image `json:"icon"`
	PinWheelIcon weather.Image `json:"pinWheelIcon"`
}

type Humidity struct {
	Value string        `json:"value"`
	Icon  weather.Image `json:"icon"`
}

type Daily struct {
	Text      string        `json:"text"`
	Condition string        `json:"condition"`
	Summary   string        `json:"summary"`
	Image     weather.Image `json:"image"`
}

// View renders the cached weather snapshot and keeps it current by listening
// for weather events.
type View struct {
	id       string
	client   WeatherClient
	registry Registry
	clock    func() time.Time
	logger   zerolog.Logger

	mu       sync.RWMutex
	prefs    Preferences
	snapshot *weather.Snapshot
	panel    Panel
}

// New creates a View with a fresh listener identity.
func New(client WeatherClient, registry Registry, prefs Preferences, logger zerolog.Logger) *View {
	id := uuid.NewString()
	return &View{
		id:       id,
		client:   client,
		registry: registry,
		clock:    time.Now,
		logger:   logger.With().Str("component", "Widget").Str("listener", id).Logger(),
		prefs:    prefs,
	}
}

// WithClock overrides the time source used for the morning forecast window.
func (v *View) WithClock(clock func() time.Time) *View {
	v.clock = clock
	return v
}

// ID implements events.Listener.
func (v *View) ID() string {
	return v.id
}

// HandleEvent implements events.Listener. Only the disabled error is acted
// upon; other errors are usually transient after a resume.
func (v *View) HandleEvent(e events.Event) {
	switch {
	case e.Kind == events.KindUpdated:
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		v.Refresh(ctx)
	case e.Kind == events.KindError && e.Reason == events.ReasonDisabled:
		v.mu.Lock()
		v.snapshot = nil
		v.panel = Panel{}
		v.mu.Unlock()
		v.logger.Info().Msg("weather disabled, hiding")
	default:
		v.logger.Debug().Stringer("event", e).Msg("ignoring event")
	}
}

// EnableUpdates registers for events and refreshes once.
func (v *View) EnableUpdates(ctx context.Context) error {
	if err := v.registry.Add(v); err != nil {
		return err
	}
	v.Refresh(ctx)
	return nil
}

// DisableUpdates unregisters from events.
func (v *View) DisableUpdates() error {
	return v.registry.Remove(v)
}

// Refresh queries the client and re-renders.
func (v *View) Refresh(ctx context.Context) {
	if !v.client.IsEnabled(ctx) {
		v.mu.Lock()
		v.snapshot = nil
		v.panel = Panel{}
		v.mu.Unlock()
		return
	}
	if err := v.client.Query(ctx); err != nil {
		v.logger.Debug().Err(err).Msg("query failed")
	}
	snapshot := v.client.Cached()

	v.mu.Lock()
	defer v.mu.Unlock()
	v.snapshot = snapshot
	v.panel = v.render(snapshot, v.prefs)
}

// SetPreferences applies new display toggles to the current snapshot.
func (v *View) SetPreferences(p Preferences) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.prefs = p
	v.panel = v.render(v.snapshot, p)
}

// Preferences returns the current display toggles.
func (v *View) Preferences() Preferences {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.prefs
}

// Panel returns the last rendered panel.
func (v *View) Panel() Panel {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.panel
}

func (v *View) render(s *weather.Snapshot, prefs Preferences) Panel {
	if s == nil {
		return Panel{}
	}

	image := v.client.ConditionImage(s.ConditionCode)
	p := Panel{
		Visible:   true,
		City:      s.City,
		Image:     &image,
		UpdatedAt: s.LastUpdateTime(),
	}

	if prefs.ShowWeatherText {
		p.Current = &Current{
			Temperature: s.Temperature + s.TempUnits,
			Condition:   s.Condition,
		}
	}
	if prefs.ShowWindInfo {
		p.Wind = &Wind{
			Speed:        s.WindSpeed + " " + s.WindUnits,
			Direction:    s.PinWheel,
			Icon:         v.client.NamedImage(windIcon),
			PinWheelIcon: v.client.NamedImage(windDirectionIcon),
		}
	}
	if prefs.ShowHumidityInfo {
		p.Humidity = &Humidity{
			Value: s.Humidity,
			Icon:  v.client.NamedImage(humidityIcon),
		}
	}

	if hour := v.clock().Hour(); hour > 5 && hour < 10 && len(s.Forecasts) > 0 {
		day := s.Forecasts[0]
		p.Daily = &Daily{
			Text:      "Today · " + day.High + "°/" + day.Low + "°",
			Condition: " · " + common.TitleWords(day.Condition),
			Summary:   day.Summary,
			Image:     v.client.ConditionImage(day.ConditionCode),
		}
	}
	return p
}
