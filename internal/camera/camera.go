// Package camera exposes a network camera as a uniform capture device.
// Connection handling and decoding live in the capture backend; this
// package is the handle callers hold.
package camera

import (
	"fmt"

	"github.com/cdaudt/camlink/internal/capture"
	"github.com/cdaudt/camlink/internal/logger"
	"github.com/cdaudt/camlink/internal/pixel"
)

// Opener opens capture devices for camera addresses. capture.Router
// satisfies it.
type Opener interface {
	Open(address string) (capture.Device, error)
}

// Camera is a handle on one network camera. The handle exclusively owns
// its device connection.
//
// A Camera is single-owner: frame retrieval mutates decoder state, so
// concurrent calls on the same handle must be serialized by the caller.
type Camera struct {
	address string
	device  capture.Device
	opener  Opener
}

// Option configures a Camera at construction.
type Option func(*Camera)

// WithOpener overrides the backend router used to open devices.
func WithOpener(o Opener) Option {
	return func(c *Camera) { c.opener = o }
}

// New opens a capture device bound to the given network address.
// Returns a ConnectionError if the address is malformed or the backend
// fails to open it.
func New(address string, opts ...Option) (*Camera, error) {
	c := &Camera{address: address}
	for _, opt := range opts {
		opt(c)
	}
	if c.opener == nil {
		c.opener = capture.DefaultRouter()
	}

	dev, err := c.opener.Open(address)
	if err != nil {
		return nil, &ConnectionError{Address: address, Err: err}
	}
	c.device = dev
	return c, nil
}

// Address returns the camera's network address.
func (c *Camera) Address() string {
	return c.address
}

// SetAddress replaces the underlying device with a connection to the
// new address. The new device is opened first; on failure the existing
// device and address are left untouched. On success the old device is
// released (errors discarded) before the swap completes.
func (c *Camera) SetAddress(address string) error {
	dev, err := c.opener.Open(address)
	if err != nil {
		return &ConnectionError{Address: address, Err: err}
	}

	if c.device != nil {
		if err := c.device.StopStream(); err != nil {
			logger.WithComponent("camera").Debug().
				Err(err).
				Str("address", c.address).
				Msg("Stop on replaced device failed")
		}
		if err := c.device.Close(); err != nil {
			logger.WithComponent("camera").Debug().
				Err(err).
				Str("address", c.address).
				Msg("Close on replaced device failed")
		}
	}

	c.device = dev
	c.address = address
	return nil
}

// OpenStream begins active frame delivery. Must be called before Frame
// or FrameToBuffer can succeed.
func (c *Camera) OpenStream() error {
	if c.device == nil {
		return &StreamError{Op: "open", Err: ErrClosed}
	}
	if err := c.device.OpenStream(); err != nil {
		return &StreamError{Op: "open", Err: err}
	}
	return nil
}

// StopStream ends active frame delivery. Safe to call repeatedly or
// before OpenStream was ever called.
func (c *Camera) StopStream() error {
	if c.device == nil {
		return &StreamError{Op: "stop", Err: ErrClosed}
	}
	if err := c.device.StopStream(); err != nil {
		return &StreamError{Op: "stop", Err: err}
	}
	return nil
}

// Frame retrieves the most recent frame decoded as RGB. The buffer is
// fresh on every call and owned by the caller.
func (c *Camera) Frame() (*pixel.RGB, error) {
	if c.device == nil {
		return nil, &CaptureError{Err: ErrClosed}
	}
	frame, err := c.device.ReadFrame()
	if err != nil {
		return nil, &CaptureError{Err: err}
	}
	return frame, nil
}

// Resolution reports the current frame dimensions, (0, 0) on a closed
// handle.
func (c *Camera) Resolution() (width, height int) {
	if c.device == nil {
		return 0, 0
	}
	return c.device.Resolution()
}

// MinBufferSize computes the byte count needed to hold one frame at the
// current resolution: width*height*4 when rgba is true, width*height*3
// otherwise. Pure, no I/O. Zero on a closed handle.
func (c *Camera) MinBufferSize(rgba bool) int {
	w, h := c.Resolution()
	if rgba {
		return w * h * 4
	}
	return w * h * 3
}

// FrameToBuffer fetches a frame and copies its bytes into buf,
// converting to RGBA first when rgba is true. Returns the number of
// bytes written. If buf is smaller than the frame, ErrShortBuffer is
// returned and nothing is written.
func (c *Camera) FrameToBuffer(buf []byte, rgba bool) (int, error) {
	frame, err := c.Frame()
	if err != nil {
		return 0, err
	}

	data := frame.Pix
	if rgba {
		data = frame.ToRGBA().Pix
	}
	if len(buf) < len(data) {
		return 0, fmt.Errorf("camera: need %d bytes, have %d: %w",
			len(data), len(buf), ErrShortBuffer)
	}
	return copy(buf, data), nil
}

// Close stops the stream and releases the device. Teardown is
// best-effort: failures are logged and discarded, never propagated.
func (c *Camera) Close() error {
	if c.device == nil {
		return nil
	}
	if err := c.device.StopStream(); err != nil {
		logger.WithComponent("camera").Debug().
			Err(err).
			Str("address", c.address).
			Msg("Stop stream during teardown failed")
	}
	if err := c.device.Close(); err != nil {
		logger.WithComponent("camera").Debug().
			Err(err).
			Str("address", c.address).
			Msg("Device close during teardown failed")
	}
	c.device = nil
	return nil
}
