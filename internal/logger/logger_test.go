package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widget.log")

	l, err := New(Config{FilePath: path, Level: "debug", NoColor: true}, "weather-widget-test")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, l.GetLevel())

	l.Debug().Str("city", "Berlin").Msg("snapshot stored")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"city":"Berlin"`)
	assert.Contains(t, string(data), `"service":"weather-widget-test"`)
}

func TestNewDefaultsToInfo(t *testing.T) {
	l, err := New(Config{NoColor: true}, "weather-widget-test")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"}, "weather-widget-test")
	assert.Error(t, err)
}
