package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openradar/TINT/internal/config"
	"github.com/openradar/TINT/tint"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tint.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	params, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, tint.DefaultParams(), params)
	assert.Equal(t, config.DefaultField, cfg.Tracking.Field)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Output.SQLite)
}

func TestLoadOverridesSubset(t *testing.T) {
	path := writeConfig(t, `
[tracking]
field = "corrected_reflectivity"
field_thresh = 35.0
min_size = 16
algorithm = "hungarian"

[output]
csv = "tracks.csv"

[metrics]
addr = ":9100"
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	params, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, "corrected_reflectivity", cfg.Tracking.Field)
	assert.Equal(t, 35.0, params.FieldThresh)
	assert.Equal(t, 16, params.MinSize)
	assert.Equal(t, tint.MatchingAlgorithmHungarian, params.Algorithm)
	assert.Equal(t, tint.DefaultSearchMargin, params.SearchMargin)
	assert.Equal(t, tint.DefaultGSAlt, params.GSAlt)
	assert.Equal(t, "tracks.csv", cfg.Output.CSV)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[tracking]
field_treshold = 35.0
`)
	_, err := config.Load(path)
	require.Error(t, err)
	var strict *toml.StrictMissingError
	assert.True(t, errors.As(err, &strict), "expected a strict decoding error, got %v", err)
}

func TestLoadRejectsInvalidParams(t *testing.T) {
	path := writeConfig(t, `
[tracking]
iso_thresh = 50.0
`)
	_, err := config.Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tint.ErrInvalidParams))

	path = writeConfig(t, `
[tracking]
algorithm = "auction"
`)
	_, err = config.Load(path)
	assert.True(t, errors.Is(err, tint.ErrInvalidParams))
}

func TestLoadRejectsBadLogging(t *testing.T) {
	path := writeConfig(t, `
[logging]
format = "xml"
`)
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestDefaultRoundTrip(t *testing.T) {
	data, err := toml.Marshal(config.Default())
	require.NoError(t, err)
	path := writeConfig(t, string(data))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), *cfg)
}
