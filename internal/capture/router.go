package capture

import (
	"fmt"
	"strings"

	"github.com/cdaudt/camlink/internal/logger"
)

// Router picks a capture backend for each camera address. Backends are
// tried in order; the first one whose CanOpen accepts the address wins.
type Router struct {
	backends []Backend
}

// NewRouter creates a router over the given backends, in priority order.
func NewRouter(backends ...Backend) *Router {
	return &Router{backends: backends}
}

// DefaultRouter routes rtsp:// addresses to GStreamer and everything
// else to OpenCV.
func DefaultRouter() *Router {
	return NewRouter(GStreamerBackend{}, OpenCVBackend{})
}

// Open validates the address and connects through the first matching
// backend.
func (r *Router) Open(address string) (Device, error) {
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("capture: empty camera address")
	}

	for _, b := range r.backends {
		if !b.CanOpen(address) {
			continue
		}
		logger.WithComponent("capture-router").Debug().
			Str("address", address).
			Str("backend", b.Name()).
			Msg("Opening camera")
		dev, err := b.Open(address)
		if err != nil {
			return nil, fmt.Errorf("capture: backend %s: %w", b.Name(), err)
		}
		return dev, nil
	}

	return nil, fmt.Errorf("capture: no backend accepts address %q", address)
}

// Backend returns the named backend, if the router carries it.
func (r *Router) Backend(name string) (Backend, bool) {
	for _, b := range r.backends {
		if b.Name() == name {
			return b, true
		}
	}
	return nil, false
}

// BackendFor reports which backend would open the given address.
func (r *Router) BackendFor(address string) (Backend, bool) {
	for _, b := range r.backends {
		if b.CanOpen(address) {
			return b, true
		}
	}
	return nil, false
}
