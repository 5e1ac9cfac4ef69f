package weather

import (
	"context"
	"errors"
)

// WeatherColumns is the fixed, ordered column set of the weather resource.
var WeatherColumns = []string{
	"city",
	"wind_speed",
	"wind_direction",
	"condition_code",
	"temperature",
	"humidity",
	"condition",
	"forecast_low",
	"forecast_high",
	"forecast_condition",
	"forecast_condition_code",
	"time_stamp",
	"forecast_date",
	"pin_wheel",
	"forecast_summary",
}

// SettingsColumns is the fixed, ordered column set of the settings resource.
var SettingsColumns = []string{
	"enabled",
	"units",
	"provider",
	"setup",
	"icon_pack",
}

// WeatherRow is one row of the weather resource. Row 0 carries current
// conditions, the following rows carry forecast days.
type WeatherRow struct {
	City                  string  `json:"city"`
	WindSpeed             float64 `json:"wind_speed"`
	WindDirection         int     `json:"wind_direction"`
	ConditionCode         int     `json:"condition_code"`
	Temperature           float64 `json:"temperature"`
	Humidity              string  `json:"humidity"`
	Condition             string  `json:"condition"`
	ForecastLow           float64 `json:"forecast_low"`
	ForecastHigh          float64 `json:"forecast_high"`
	ForecastCondition     string  `json:"forecast_condition"`
	ForecastConditionCode int     `json:"forecast_condition_code"`
	TimeStamp             string  `json:"time_stamp"`
	ForecastDate          string  `json:"forecast_date"`
	PinWheel              string  `json:"pin_wheel"`
	ForecastSummary       string  `json:"forecast_summary"`
}

// SettingsRow is one row of the settings resource. Units is 0 for metric.
type SettingsRow struct {
	Enabled  int    `json:"enabled"`
	Units    int    `json:"units"`
	Provider string `json:"provider"`
	Setup    int    `json:"setup"`
	IconPack string `json:"icon_pack"`
}

// Settings converts the raw row into Settings.
func (r SettingsRow) Settings() Settings {
	return Settings{
		Enabled:  r.Enabled == 1,
		Metric:   r.Units == 0,
		Provider: r.Provider,
		Setup:    r.Setup == 1,
		IconPack: r.IconPack,
	}
}

// Provider is the read-only query interface of the external weather service.
type Provider interface {
	QueryWeather(ctx context.Context) ([]WeatherRow, error)
	QuerySettings(ctx context.Context) ([]SettingsRow, error)
}

// EnabledState mirrors the component enabled setting of an installed package.
type EnabledState int

const (
	StateDefault EnabledState = iota
	StateEnabled
	StateDisabled
	StateDisabledUser
	StateDisabledUntilUsed
)

// ErrPackageNotFound is returned by a PackageManager for unknown packages.
var ErrPackageNotFound = errors.New("package not found")

// PackageManager reports whether packages are installed and enabled.
type PackageManager interface {
	EnabledState(ctx context.Context, packageName string) (EnabledState, error)
}

// Image is a resolved image resource.
type Image struct {
	Package     string `json:"package"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
	Placeholder bool   `json:"placeholder"`
}

// IconBundle is the resource bundle of one icon package.
type IconBundle interface {
	Image(name string) (Image, error)
}

// IconSource opens icon bundles by package name.
type IconSource interface {
	Open(packageName string) (IconBundle, error)
}

// Cache holds at most one snapshot.
type Cache interface {
	Store(snapshot *Snapshot)
	Load() (*Snapshot, error)
	Clear()
}
