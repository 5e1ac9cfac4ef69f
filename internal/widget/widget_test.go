package widget

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-widget/internal/events"
	"github.com/i474232898/weather-widget/internal/weather"
)

type fakeClient struct {
	mu       sync.Mutex
	enabled  bool
	snapshot *weather.Snapshot
	queryErr error
	queries  int
}

func (c *fakeClient) IsEnabled(context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

func (c *fakeClient) Query(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries++
	return c.queryErr
}

func (c *fakeClient) Cached() *weather.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

func (c *fakeClient) set(s *weather.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = s
}

func (c *fakeClient) ConditionImage(code int) weather.Image {
	return weather.Image{Name: "cond_" + strconv.Itoa(code), ContentType: "image/png"}
}

func (c *fakeClient) NamedImage(name string) weather.Image {
	return weather.Image{Name: name, ContentType: "image/png"}
}

func snapshot() *weather.Snapshot {
	return &weather.Snapshot{
		City:          "Berlin",
		WindSpeed:     "12",
		WindDirection: "270°",
		ConditionCode: 32,
		Temperature:   "22",
		Humidity:      "40%",
		Condition:     "Sunny",
		Timestamp:     1700000000000,
		PinWheel:      "W",
		TempUnits:     "°C",
		WindUnits:     "km/h",
		Forecasts: []weather.DayForecast{
			{Low: "10", High: "18", ConditionCode: 30, Condition: "partly cloudy", Summary: "Clouds clearing later"},
			{Low: "8", High: "15", ConditionCode: 11, Condition: "showers"},
		},
	}
}

func at(hour int) func() time.Time {
	return func() time.Time { return time.Date(2026, 10, 15, hour, 30, 0, 0, time.Local) }
}

func newTestView(c *fakeClient, prefs Preferences, hour int) *View {
	reg := events.NewRegistry(events.NewBus(), zerolog.Nop(), nil)
	return New(c, reg, prefs, zerolog.Nop()).WithClock(at(hour))
}

func TestRefreshRendersSnapshot(t *testing.T) {
	c := &fakeClient{enabled: true, snapshot: snapshot()}
	v := newTestView(c, DefaultPreferences(), 12)

	v.Refresh(context.Background())
	p := v.Panel()

	require.True(t, p.Visible)
	assert.Equal(t, 1, c.queries)
	assert.Equal(t, "Berlin", p.City)
	require.NotNil(t, p.Image)
	assert.Equal(t, "cond_32", p.Image.Name)
	assert.Equal(t, &Current{Temperature: "22°C", Condition: "Sunny"}, p.Current)

	require.NotNil(t, p.Wind)
	assert.Equal(t, "12 km/h", p.Wind.Speed)
	assert.Equal(t, "W", p.Wind.Direction)
	assert.Equal(t, "ic_wind_symbol", p.Wind.Icon.Name)
	assert.Equal(t, "ic_wind_direction_symbol", p.Wind.PinWheelIcon.Name)

	require.NotNil(t, p.Humidity)
	assert.Equal(t, "40%", p.Humidity.Value)
	assert.Equal(t, "ic_humidity_symbol", p.Humidity.Icon.Name)

	assert.Nil(t, p.Daily)
	assert.Equal(t, snapshot().LastUpdateTime(), p.UpdatedAt)
}

func TestDailyForecastOnlyInTheMorning(t *testing.T) {
	tests := []struct {
		hour      int
		wantDaily bool
	}{
		{5, false},
		{6, true},
		{9, true},
		{10, false},
		{18, false},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.hour), func(t *testing.T) {
			c := &fakeClient{enabled: true, snapshot: snapshot()}
			v := newTestView(c, DefaultPreferences(), tt.hour)
			v.Refresh(context.Background())

			p := v.Panel()
			if !tt.wantDaily {
				assert.Nil(t, p.Daily)
				return
			}
			require.NotNil(t, p.Daily)
			assert.Equal(t, "Today · 18°/10°", p.Daily.Text)
			assert.Equal(t, " · Partly Cloudy", p.Daily.Condition)
			assert.Equal(t, "Clouds clearing later", p.Daily.Summary)
			assert.Equal(t, "cond_30", p.Daily.Image.Name)
		})
	}
}

func TestDailyForecastNeedsForecasts(t *testing.T) {
	s := snapshot()
	s.Forecasts = nil
	c := &fakeClient{enabled: true, snapshot: s}
	v := newTestView(c, DefaultPreferences(), 7)

	v.Refresh(context.Background())
	assert.Nil(t, v.Panel().Daily)
}

func TestPreferencesHideSections(t *testing.T) {
	c := &fakeClient{enabled: true, snapshot: snapshot()}
	v := newTestView(c, Preferences{}, 12)
	v.Refresh(context.Background())

	p := v.Panel()
	assert.True(t, p.Visible)
	assert.Nil(t, p.Current)
	assert.Nil(t, p.Wind)
	assert.Nil(t, p.Humidity)

	v.SetPreferences(Preferences{ShowWindInfo: true})
	p = v.Panel()
	assert.Nil(t, p.Current)
	assert.NotNil(t, p.Wind)
	assert.Nil(t, p.Humidity)
	assert.Equal(t, Preferences{ShowWindInfo: true}, v.Preferences())
}

func TestRefreshWhileDisabledHides(t *testing.T) {
	c := &fakeClient{enabled: true, snapshot: snapshot()}
	v := newTestView(c, DefaultPreferences(), 12)
	v.Refresh(context.Background())
	require.True(t, v.Panel().Visible)

	c.mu.Lock()
	c.enabled = false
	c.mu.Unlock()
	v.Refresh(context.Background())

	assert.False(t, v.Panel().Visible)
	assert.Equal(t, 1, c.queries)
}

func TestRefreshWithoutDataHides(t *testing.T) {
	c := &fakeClient{enabled: true, queryErr: errors.New("query failed")}
	v := newTestView(c, DefaultPreferences(), 12)

	v.Refresh(context.Background())

	assert.Equal(t, Panel{}, v.Panel())
}

func TestHandleEvent(t *testing.T) {
	c := &fakeClient{enabled: true, snapshot: snapshot()}
	v := newTestView(c, DefaultPreferences(), 12)
	v.Refresh(context.Background())

	v.HandleEvent(events.Error(events.ReasonNetwork))
	assert.True(t, v.Panel().Visible)

	v.HandleEvent(events.Error(events.ReasonLocation))
	assert.True(t, v.Panel().Visible)

	v.HandleEvent(events.Error(events.ReasonDisabled))
	assert.False(t, v.Panel().Visible)

	v.HandleEvent(events.Updated())
	assert.True(t, v.Panel().Visible)
	assert.Equal(t, 2, c.queries)
}

func TestEnableUpdatesFollowsBus(t *testing.T) {
	bus := events.NewBus()
	reg := events.NewRegistry(bus, zerolog.Nop(), nil)
	c := &fakeClient{enabled: true, snapshot: snapshot()}
	v := New(c, reg, DefaultPreferences(), zerolog.Nop()).WithClock(at(12))

	require.NoError(t, v.EnableUpdates(context.Background()))
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, "Berlin", v.Panel().City)

	updated := snapshot()
	updated.City = "Hamburg"
	c.set(updated)
	require.NoError(t, bus.Publish(context.Background(), events.Updated()))
	assert.Equal(t, "Hamburg", v.Panel().City)

	require.NoError(t, v.DisableUpdates())
	assert.Zero(t, reg.Len())
	assert.Zero(t, bus.Subscribers())

	c.set(snapshot())
	require.NoError(t, bus.Publish(context.Background(), events.Updated()))
	assert.Equal(t, "Hamburg", v.Panel().City)
}

func TestViewsHaveDistinctIDs(t *testing.T) {
	c := &fakeClient{}
	a := newTestView(c, DefaultPreferences(), 12)
	b := newTestView(c, DefaultPreferences(), 12)
	assert.NotEqual(t, a.ID(), b.ID())
}
