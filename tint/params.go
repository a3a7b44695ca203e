package tint

import (
	"github.com/pkg/errors"
)

// Tracking parameter defaults.
const (
	DefaultFieldThresh  = 32.0
	DefaultMinSize      = 32
	DefaultSearchMargin = 8.0
	DefaultFlowMargin   = 20
	DefaultMaxFlowMag   = 50.0
	DefaultMaxDisparity = 999.0
	DefaultMaxShiftDisp = 15.0
	DefaultIsoThresh    = 8.0
	DefaultIsoSmooth    = 3.0
	DefaultGSAlt        = 1500.0
	DefaultNearThresh   = 4.0
)

// Params holds the tunable values of the tracking algorithm.
type Params struct {
	// Detection threshold in units of the tracked field. Objects are
	// connected pixels whose column exceeds it at any level.
	FieldThresh float64
	// Minimum object size in pixels.
	MinSize int
	// Half-width in pixels of the search window around a predicted center.
	SearchMargin float64
	// Margin in pixels around an object extent used for ambient flow.
	FlowMargin int
	// Maximum magnitude in pixels of each global shift component.
	MaxFlowMag float64
	// Maximum accepted disparity between a prediction and a candidate.
	MaxDisparity float64
	// Maximum disagreement between ambient flow and global shift. Compared as
	// speed in m/s when the scan interval is known, in pixels otherwise.
	MaxShiftDisp float64
	// Isolation threshold in units of the tracked field. Must not exceed FieldThresh.
	IsoThresh float64
	// Gaussian sigma in pixels applied before isolation thresholding.
	IsoSmooth float64
	// Altitude in meters of the slice used for phase correlation.
	GSAlt float64
	// Distance in pixels within which a larger object is taken as the origin
	// of a newborn one.
	NearThresh float64
	// Algorithm resolving candidate edges into pairs.
	Algorithm MatchingAlgorithm
}

// DefaultParams returns parameters with documented default values.
func DefaultParams() Params {
	return Params{
		FieldThresh:  DefaultFieldThresh,
		MinSize:      DefaultMinSize,
		SearchMargin: DefaultSearchMargin,
		FlowMargin:   DefaultFlowMargin,
		MaxFlowMag:   DefaultMaxFlowMag,
		MaxDisparity: DefaultMaxDisparity,
		MaxShiftDisp: DefaultMaxShiftDisp,
		IsoThresh:    DefaultIsoThresh,
		IsoSmooth:    DefaultIsoSmooth,
		GSAlt:        DefaultGSAlt,
		NearThresh:   DefaultNearThresh,
		Algorithm:    MatchingAlgorithmGreedy,
	}
}

// Validate reports the first malformed value. The returned error wraps ErrInvalidParams.
func (p Params) Validate() error {
	finite := map[string]float64{
		"FieldThresh":  p.FieldThresh,
		"SearchMargin": p.SearchMargin,
		"MaxFlowMag":   p.MaxFlowMag,
		"MaxDisparity": p.MaxDisparity,
		"MaxShiftDisp": p.MaxShiftDisp,
		"IsoThresh":    p.IsoThresh,
		"IsoSmooth":    p.IsoSmooth,
		"GSAlt":        p.GSAlt,
		"NearThresh":   p.NearThresh,
	}
	for _, name := range paramNames {
		if !isFinite(finite[name]) {
			return errors.Wrapf(ErrInvalidParams, "%s must be finite", name)
		}
	}
	switch {
	case p.FieldThresh < 0:
		return errors.Wrap(ErrInvalidParams, "FieldThresh must not be negative")
	case p.IsoThresh < 0:
		return errors.Wrap(ErrInvalidParams, "IsoThresh must not be negative")
	case p.IsoThresh > p.FieldThresh:
		return errors.Wrapf(ErrInvalidParams, "IsoThresh %v exceeds FieldThresh %v", p.IsoThresh, p.FieldThresh)
	case p.MinSize < 0:
		return errors.Wrap(ErrInvalidParams, "MinSize must not be negative")
	case p.SearchMargin < 0:
		return errors.Wrap(ErrInvalidParams, "SearchMargin must not be negative")
	case p.FlowMargin < 0:
		return errors.Wrap(ErrInvalidParams, "FlowMargin must not be negative")
	case p.MaxFlowMag <= 0:
		return errors.Wrap(ErrInvalidParams, "MaxFlowMag must be positive")
	case p.MaxDisparity <= 0:
		return errors.Wrap(ErrInvalidParams, "MaxDisparity must be positive")
	case p.MaxShiftDisp < 0:
		return errors.Wrap(ErrInvalidParams, "MaxShiftDisp must not be negative")
	case p.IsoSmooth < 0:
		return errors.Wrap(ErrInvalidParams, "IsoSmooth must not be negative")
	case p.GSAlt < 0:
		return errors.Wrap(ErrInvalidParams, "GSAlt must not be negative")
	case p.NearThresh < 0:
		return errors.Wrap(ErrInvalidParams, "NearThresh must not be negative")
	}
	if _, err := ParseMatchingAlgorithm(p.Algorithm.String()); err != nil {
		return errors.Wrap(ErrInvalidParams, err.Error())
	}
	return nil
}

// paramNames fixes the order in which floating point values are checked.
var paramNames = []string{
	"FieldThresh", "SearchMargin", "MaxFlowMag", "MaxDisparity", "MaxShiftDisp",
	"IsoThresh", "IsoSmooth", "GSAlt", "NearThresh",
}
