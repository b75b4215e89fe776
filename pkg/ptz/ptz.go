// Package ptz defines the vendor-neutral PTZ control surface shared by the
// ONVIF, VAPIX and SUNAPI backends.
package ptz

import "context"

// Vector holds a pan/tilt/zoom triple. The meaning of the components depends
// on the call: continuous moves treat them as normalized velocities in
// [-1, 1], absolute moves treat them as device-native positions.
type Vector struct {
	Pan  float64
	Tilt float64
	Zoom float64
}

// PresetInfo describes a camera-stored preset position.
type PresetInfo struct {
	Token string
	Name  string
}

// Controller is the command set every backend implements. Implementations
// own a single camera endpoint, perform one synchronous round trip per call
// and are not safe for concurrent use.
type Controller interface {
	// Status returns the current pan/tilt/zoom position.
	Status(ctx context.Context) (Vector, error)

	// ContinuousMove starts moving at the given velocity. Components are
	// normalized to [-1, 1]; the backend translates to its native range.
	ContinuousMove(ctx context.Context, speed Vector) error

	// AbsoluteMove drives the camera to a device-native position. Speed is
	// normalized to [0, 1]; backends without a speed parameter ignore it.
	AbsoluteMove(ctx context.Context, pos Vector, speed float64) error

	// Stop halts any ongoing movement. Safe to call when idle.
	Stop(ctx context.Context) error

	// GotoPreset recalls a camera-stored position. The token is passed
	// through to the device; its form (number, name, token) is
	// backend-specific.
	GotoPreset(ctx context.Context, token string) error

	// Close releases the underlying transport.
	Close() error
}

// PresetLister is implemented by backends that can enumerate the presets
// stored on the camera. Callers should feature-detect with a type assertion.
type PresetLister interface {
	Presets(ctx context.Context) ([]PresetInfo, error)
}

// PresetStore is implemented by backends that can also create and delete
// presets.
type PresetStore interface {
	PresetLister
	SetPreset(ctx context.Context, name string) error
	RemovePreset(ctx context.Context, name string) error
}

// Clamp limits v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
