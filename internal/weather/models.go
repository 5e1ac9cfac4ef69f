package weather

import (
	"fmt"
	"time"
)

const (
	// ServicePackage is the package name of the external weather service.
	ServicePackage = "org.omnirom.omnijaws"

	// DefaultIconPackage and DefaultIconPrefix select the built-in icon pack.
	DefaultIconPackage = "org.omnirom.omnijaws"
	DefaultIconPrefix  = "google_new_light"
)

// Snapshot is the single cached weather record: current conditions plus forecast.
// A Snapshot is never mutated after it has been stored.
type Snapshot struct {
	City          string        `json:"city"`
	WindSpeed     string        `json:"windSpeed"`
	WindDirection string        `json:"windDirection"`
	ConditionCode int           `json:"conditionCode"`
	Temperature   string        `json:"temperature"`
	Humidity      string        `json:"humidity"`
	Condition     string        `json:"condition"`
	Timestamp     int64         `json:"timestamp"` // epoch millis
	PinWheel      string        `json:"pinWheel"`
	Forecasts     []DayForecast `json:"forecasts"`

	TempUnits string `json:"tempUnits"`
	WindUnits string `json:"windUnits"`
	Provider  string `json:"provider"`
	IconPack  string `json:"iconPack"`
}

// CapturedAt returns the capture timestamp as a time.Time.
func (s *Snapshot) CapturedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// LastUpdateTime formats the capture time as HH:MM:SS in the local zone.
func (s *Snapshot) LastUpdateTime() string {
	return s.CapturedAt().Local().Format("15:04:05")
}

func (s *Snapshot) String() string {
	return fmt.Sprintf("%s:%s: %s:%s:%d:%s:%s:%s:%s:%s: %v: %s",
		s.City, s.CapturedAt().UTC().Format(time.RFC3339), s.WindSpeed, s.WindDirection,
		s.ConditionCode, s.Temperature, s.Humidity, s.Condition, s.TempUnits, s.WindUnits,
		s.Forecasts, s.IconPack)
}

// DayForecast is one forecast row, in the order returned by the provider.
type DayForecast struct {
	Low           string `json:"low"`
	High          string `json:"high"`
	ConditionCode int    `json:"conditionCode"`
	Condition     string `json:"condition"`
	Date          string `json:"date"`
	Summary       string `json:"summary"`
}

func (d DayForecast) String() string {
	return fmt.Sprintf("[%s:%s:%d:%s:%s:%s]", d.Low, d.High, d.ConditionCode, d.Condition, d.Date, d.Summary)
}

// Settings is the single-row settings record of the weather service.
type Settings struct {
	Enabled  bool   `json:"enabled"`
	Metric   bool   `json:"metric"`
	Provider string `json:"provider"`
	Setup    bool   `json:"setup"`
	IconPack string `json:"iconPack"`
}

// TemperatureUnit returns the temperature unit label for these settings.
func (s Settings) TemperatureUnit() string {
	if s.Metric {
		return "°C"
	}
	return "°F"
}

// WindUnit returns the wind speed unit label for these settings.
func (s Settings) WindUnit() string {
	if s.Metric {
		return "km/h"
	}
	return "mph"
}
