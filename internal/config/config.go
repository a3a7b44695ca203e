// Package config loads TOML configuration for tracking runs.
package config

import (
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/openradar/TINT/tint"
)

// Tracking holds the tracked field and the tracking parameters.
type Tracking struct {
	Field        string  `toml:"field"`
	FieldThresh  float64 `toml:"field_thresh"`
	MinSize      int     `toml:"min_size"`
	SearchMargin float64 `toml:"search_margin"`
	FlowMargin   int     `toml:"flow_margin"`
	MaxFlowMag   float64 `toml:"max_flow_mag"`
	MaxDisparity float64 `toml:"max_disparity"`
	MaxShiftDisp float64 `toml:"max_shift_disp"`
	IsoThresh    float64 `toml:"iso_thresh"`
	IsoSmooth    float64 `toml:"iso_smooth"`
	GSAlt        float64 `toml:"gs_alt"`
	NearThresh   float64 `toml:"near_thresh"`
	Algorithm    string  `toml:"algorithm"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Output lists where finished tracks are written. Empty paths are skipped.
type Output struct {
	SQLite string `toml:"sqlite"`
	CSV    string `toml:"csv"`
}

// Metrics contains configuration for the Prometheus endpoint.
type Metrics struct {
	Addr string `toml:"addr"`
}

// Config is the full run configuration.
type Config struct {
	Tracking Tracking `toml:"tracking"`
	Logging  Logging  `toml:"logging"`
	Output   Output   `toml:"output"`
	Metrics  Metrics  `toml:"metrics"`
}

// DefaultField is the field tracked when none is configured.
const DefaultField = "reflectivity"

// Default returns the configuration used when no file is given.
func Default() Config {
	params := tint.DefaultParams()
	return Config{
		Tracking: Tracking{
			Field:        DefaultField,
			FieldThresh:  params.FieldThresh,
			MinSize:      params.MinSize,
			SearchMargin: params.SearchMargin,
			FlowMargin:   params.FlowMargin,
			MaxFlowMag:   params.MaxFlowMag,
			MaxDisparity: params.MaxDisparity,
			MaxShiftDisp: params.MaxShiftDisp,
			IsoThresh:    params.IsoThresh,
			IsoSmooth:    params.IsoSmooth,
			GSAlt:        params.GSAlt,
			NearThresh:   params.NearThresh,
			Algorithm:    params.Algorithm.String(),
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load parses the file at path on top of the defaults and validates the
// result. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "open config")
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Tracking.Field) == "" {
		return errors.New("tracking.field must be set")
	}
	if _, err := c.Params(); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return errors.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// Params converts the tracking section into validated tracking parameters.
func (c Config) Params() (tint.Params, error) {
	algorithm, err := tint.ParseMatchingAlgorithm(c.Tracking.Algorithm)
	if err != nil {
		return tint.Params{}, errors.Wrap(tint.ErrInvalidParams, err.Error())
	}
	params := tint.Params{
		FieldThresh:  c.Tracking.FieldThresh,
		MinSize:      c.Tracking.MinSize,
		SearchMargin: c.Tracking.SearchMargin,
		FlowMargin:   c.Tracking.FlowMargin,
		MaxFlowMag:   c.Tracking.MaxFlowMag,
		MaxDisparity: c.Tracking.MaxDisparity,
		MaxShiftDisp: c.Tracking.MaxShiftDisp,
		IsoThresh:    c.Tracking.IsoThresh,
		IsoSmooth:    c.Tracking.IsoSmooth,
		GSAlt:        c.Tracking.GSAlt,
		NearThresh:   c.Tracking.NearThresh,
		Algorithm:    algorithm,
	}
	if err := params.Validate(); err != nil {
		return tint.Params{}, err
	}
	return params, nil
}
