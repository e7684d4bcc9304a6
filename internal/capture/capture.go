package capture

import "github.com/cdaudt/camlink/internal/pixel"

// Device is an opened connection to a single network camera. It manages
// the transport and decodes incoming video into raw RGB frames.
//
// A Device is not safe for concurrent use; the owning handle serializes
// access.
type Device interface {
	// OpenStream begins active frame delivery. It must be called before
	// ReadFrame can succeed.
	OpenStream() error

	// StopStream ends active frame delivery. Safe to call repeatedly or
	// before OpenStream was ever called.
	StopStream() error

	// ReadFrame retrieves and decodes the most recent frame. Each call
	// returns a fresh buffer owned by the caller.
	ReadFrame() (*pixel.RGB, error)

	// Resolution reports the current frame dimensions. May be (0, 0)
	// before the first frame has been decoded.
	Resolution() (width, height int)

	// Close releases the connection and all decoder resources.
	Close() error
}

// Backend opens Devices for a class of camera addresses.
type Backend interface {
	// Name returns a short identifier for this backend ("opencv",
	// "gstreamer").
	Name() string

	// CanOpen reports whether this backend handles the given address.
	CanOpen(address string) bool

	// Open connects to the camera at the given address.
	Open(address string) (Device, error)
}
