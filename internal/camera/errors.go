package camera

import (
	"errors"
	"fmt"
)

// ErrUnsupported marks device capabilities this camera type does not
// implement. Callers get an explicit error instead of wrong data.
var ErrUnsupported = errors.New("unsupported for this device")

// ErrShortBuffer is returned by FrameToBuffer when the destination is
// smaller than MinBufferSize. Nothing is written in that case.
var ErrShortBuffer = errors.New("destination buffer too small")

// ErrClosed is returned by operations on a handle after Close.
var ErrClosed = errors.New("camera handle closed")

// ConnectionError reports a failed open against a camera address. It is
// fatal to the construct or reconfigure operation that raised it.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("camera: failed to connect to %q: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// StreamError reports a failed stream start or stop.
type StreamError struct {
	Op  string // "open" or "stop"
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("camera: failed to %s stream: %v", e.Op, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// CaptureError reports a per-frame read or decode failure. These are
// often transient (nothing decoded yet, device busy); retry policy is
// the caller's, this layer performs none.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("camera: failed to capture frame: %v", e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }
