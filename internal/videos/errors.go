package videos

import "errors"

var (
	// ErrProberUnavailable indicates no duration prober is configured.
	ErrProberUnavailable = errors.New("video duration prober unavailable")
	// ErrNoDuration is returned when the container reports no usable length.
	ErrNoDuration = errors.New("media has no duration")
)
