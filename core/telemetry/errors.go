package telemetry

import "errors"

// ErrInvalidPayload is returned when a payload cannot be parsed for its channel.
// The state is left untouched.
var ErrInvalidPayload = errors.New("invalid payload")

// ErrInvalidViewport is returned for a viewport outside WGS84 bounds or with a
// negative zoom.
var ErrInvalidViewport = errors.New("invalid viewport")
