package camera

import "fmt"

// Control identifies a device control (brightness, exposure, ...).
type Control struct {
	ID    string
	Value int
}

// Network cameras expose no control or format-negotiation surface
// through the capture backends; every capability below reports
// ErrUnsupported instead of guessing.

// Controls lists the device's controls.
func (c *Camera) Controls() ([]Control, error) {
	return nil, fmt.Errorf("camera: controls: %w", ErrUnsupported)
}

// Control reads a single device control.
func (c *Camera) Control(id string) (Control, error) {
	return Control{}, fmt.Errorf("camera: control %q: %w", id, ErrUnsupported)
}

// SetControl writes a device control.
func (c *Camera) SetControl(id string, value int) error {
	return fmt.Errorf("camera: set control %q: %w", id, ErrUnsupported)
}

// SetResolution requests a capture resolution.
func (c *Camera) SetResolution(width, height int) error {
	return fmt.Errorf("camera: set resolution: %w", ErrUnsupported)
}

// FrameRate reports the negotiated frame rate.
func (c *Camera) FrameRate() (int, error) {
	return 0, fmt.Errorf("camera: frame rate: %w", ErrUnsupported)
}

// SetFrameRate requests a capture frame rate.
func (c *Camera) SetFrameRate(fps int) error {
	return fmt.Errorf("camera: set frame rate: %w", ErrUnsupported)
}

// SupportedResolutions enumerates resolutions the device can deliver.
func (c *Camera) SupportedResolutions() ([][2]int, error) {
	return nil, fmt.Errorf("camera: supported resolutions: %w", ErrUnsupported)
}
