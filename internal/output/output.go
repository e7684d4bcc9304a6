package output

import "image"

// Output is a sink for decoded camera frames. Implementations include
// the MJPEG HTTP stream; a V4L2 loopback or file recorder would slot in
// the same way.
type Output interface {
	// Start initializes the output mechanism.
	Start() error

	// Stop cleanly shuts down the output.
	Stop() error

	// WriteFrame sends an RGBA frame to the output.
	WriteFrame(frame *image.RGBA) error

	// Name returns a human-readable name for this output type.
	Name() string

	// IsRunning returns true if the output is currently active.
	IsRunning() bool
}

// Config holds common configuration for all output types.
type Config struct {
	FPS         int
	JPEGQuality int
}
