package capture

import (
	"strings"

	"github.com/cdaudt/camlink/internal/capture/gst"
)

// GStreamerBackend opens RTSP cameras through a GStreamer pipeline.
// Decoding runs inside GStreamer and can use hardware acceleration,
// which makes it the preferred backend for rtsp:// addresses.
type GStreamerBackend struct{}

// Name returns the backend identifier.
func (GStreamerBackend) Name() string { return "gstreamer" }

// CanOpen reports whether this backend handles the address.
func (GStreamerBackend) CanOpen(address string) bool {
	return strings.HasPrefix(address, "rtsp://")
}

// Open connects to the camera at the given address.
func (GStreamerBackend) Open(address string) (Device, error) {
	return gst.Open(address)
}
