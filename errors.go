package quadatlas

import "errors"

// Package errors. Operations wrap these sentinels with fmt.Errorf("%w")
// adding the offending index and size values; callers match with errors.Is.
var (
	// ErrIndexOutOfRange is returned when an index or range argument falls
	// outside the valid slots for the operation.
	ErrIndexOutOfRange = errors.New("quadatlas: index out of range")

	// ErrCapacityExceeded is returned by non-growing operations (InsertQuads,
	// RawQuads.MoveTail) when the result would not fit the current capacity.
	ErrCapacityExceeded = errors.New("quadatlas: capacity exceeded")

	// ErrInvalidCapacity is returned for negative capacity arguments.
	ErrInvalidCapacity = errors.New("quadatlas: invalid capacity")

	// ErrCapacityTooLarge is returned when a requested capacity cannot be
	// addressed with 16-bit vertex indices (more than MaxCapacity quads).
	ErrCapacityTooLarge = errors.New("quadatlas: capacity exceeds 16-bit index limit")

	// ErrNilDevice is returned when constructing an atlas without a device.
	ErrNilDevice = errors.New("quadatlas: device is nil")

	// ErrNoPipeline is returned by draw calls when no render pipeline is
	// configured.
	ErrNoPipeline = errors.New("quadatlas: no render pipeline configured")

	// ErrNoTexture is returned by draw calls when no texture is set.
	ErrNoTexture = errors.New("quadatlas: no texture set")

	// ErrReleased is returned when using an atlas after Release.
	ErrReleased = errors.New("quadatlas: atlas already released")
)
