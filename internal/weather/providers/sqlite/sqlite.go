package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/i474232898/weather-widget/internal/weather"
)

const schema = `
CREATE TABLE IF NOT EXISTS weather (
	row_index               INTEGER PRIMARY KEY,
	"city"                  TEXT    NOT NULL DEFAULT '',
	"wind_speed"            REAL,
	"wind_direction"        INTEGER NOT NULL DEFAULT 0,
	"condition_code"        INTEGER NOT NULL DEFAULT 0,
	"temperature"           REAL,
	"humidity"              TEXT    NOT NULL DEFAULT '',
	"condition"             TEXT    NOT NULL DEFAULT '',
	"forecast_low"          REAL,
	"forecast_high"         REAL,
	"forecast_condition"    TEXT    NOT NULL DEFAULT '',
	"forecast_condition_code" INTEGER NOT NULL DEFAULT 0,
	"time_stamp"            TEXT    NOT NULL DEFAULT '',
	"forecast_date"         TEXT    NOT NULL DEFAULT '',
	"pin_wheel"             TEXT    NOT NULL DEFAULT '',
	"forecast_summary"      TEXT    NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS settings (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	"enabled"   INTEGER NOT NULL DEFAULT 0,
	"units"     INTEGER NOT NULL DEFAULT 0,
	"provider"  TEXT    NOT NULL DEFAULT '',
	"setup"     INTEGER NOT NULL DEFAULT 0,
	"icon_pack" TEXT    NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS packages (
	name          TEXT PRIMARY KEY,
	enabled_state INTEGER NOT NULL DEFAULT 0
);`

// Store reads the weather service's resources from a SQLite database.
// NaN values are stored as NULL and read back as NaN.
type Store struct {
	db *sql.DB
}

// NewSQLite opens the database at dsn and ensures the schema exists.
func NewSQLite(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func quoted(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = `"` + c + `"`
	}
	return strings.Join(q, ", ")
}

// QueryWeather returns the weather rows ordered by row index.
func (s *Store) QueryWeather(ctx context.Context) ([]weather.WeatherRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+quoted(weather.WeatherColumns)+` FROM weather ORDER BY row_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []weather.WeatherRow
	for rows.Next() {
		var r weather.WeatherRow
		var windSpeed, temp, low, hi sql.NullFloat64
		if err := rows.Scan(
			&r.City, &windSpeed, &r.WindDirection, &r.ConditionCode, &temp,
			&r.Humidity, &r.Condition, &low, &hi, &r.ForecastCondition,
			&r.ForecastConditionCode, &r.TimeStamp, &r.ForecastDate, &r.PinWheel,
			&r.ForecastSummary,
		); err != nil {
			return nil, err
		}
		r.WindSpeed = nanIfNull(windSpeed)
		r.Temperature = nanIfNull(temp)
		r.ForecastLow = nanIfNull(low)
		r.ForecastHigh = nanIfNull(hi)
		out = append(out, r)
	}
	return out, rows.Err()
}

// QuerySettings returns the settings rows (zero or one).
func (s *Store) QuerySettings(ctx context.Context) ([]weather.SettingsRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+quoted(weather.SettingsColumns)+` FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []weather.SettingsRow
	for rows.Next() {
		var r weather.SettingsRow
		if err := rows.Scan(&r.Enabled, &r.Units, &r.Provider, &r.Setup, &r.IconPack); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EnabledState implements weather.PackageManager over the packages table.
func (s *Store) EnabledState(ctx context.Context, packageName string) (weather.EnabledState, error) {
	var state int
	err := s.db.QueryRowContext(ctx,
		`SELECT enabled_state FROM packages WHERE name = ?`, packageName).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", weather.ErrPackageNotFound, packageName)
	}
	if err != nil {
		return 0, err
	}
	return weather.EnabledState(state), nil
}

// ReplaceWeather replaces the weather table with rows, in order.
func (s *Store) ReplaceWeather(ctx context.Context, rows []weather.WeatherRow) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM weather`); err != nil {
		return err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(weather.WeatherColumns)+1), ", ")
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO weather(row_index, `+quoted(weather.WeatherColumns)+`) VALUES(`+placeholders+`)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range rows {
		if _, err = stmt.ExecContext(ctx,
			i, r.City, nullIfNaN(r.WindSpeed), r.WindDirection, r.ConditionCode,
			nullIfNaN(r.Temperature), r.Humidity, r.Condition, nullIfNaN(r.ForecastLow),
			nullIfNaN(r.ForecastHigh), r.ForecastCondition, r.ForecastConditionCode,
			r.TimeStamp, r.ForecastDate, r.PinWheel, r.ForecastSummary,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// PutSettings writes the single settings row.
func (s *Store) PutSettings(ctx context.Context, r weather.SettingsRow) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO settings(id, "enabled", "units", "provider", "setup", "icon_pack") VALUES(1, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	"enabled" = excluded."enabled",
	"units" = excluded."units",
	"provider" = excluded."provider",
	"setup" = excluded."setup",
	"icon_pack" = excluded."icon_pack"`,
		r.Enabled, r.Units, r.Provider, r.Setup, r.IconPack)
	return err
}

// DeleteSettings removes the settings row.
func (s *Store) DeleteSettings(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM settings`)
	return err
}

// SetPackage records an installed package and its enabled state.
func (s *Store) SetPackage(ctx context.Context, name string, state weather.EnabledState) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO packages(name, enabled_state) VALUES(?, ?)
ON CONFLICT(name) DO UPDATE SET enabled_state = excluded.enabled_state`,
		name, int(state))
	return err
}

// RemovePackage forgets an installed package.
func (s *Store) RemovePackage(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM packages WHERE name = ?`, name)
	return err
}

func nanIfNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func nullIfNaN(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
