package tint

import "github.com/pkg/errors"

var (
	// ErrInvalidParams is returned when tracking parameters are malformed.
	ErrInvalidParams = errors.New("invalid tracking parameters")
	// ErrFieldNotFound is returned when a volume does not carry the tracked field.
	ErrFieldNotFound = errors.New("field not found in volume")
	// ErrShapeMismatch is returned when field data does not match the coordinate arrays.
	ErrShapeMismatch = errors.New("field data does not match volume shape")
	// ErrNoVolumes is returned when a new session is started on an empty source.
	ErrNoVolumes = errors.New("volume source is empty")
	// ErrBadTimestamp is returned when a volume time string cannot be parsed.
	ErrBadTimestamp = errors.New("can't parse volume timestamp")
)
