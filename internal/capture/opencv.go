package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/cdaudt/camlink/internal/logger"
	"github.com/cdaudt/camlink/internal/pixel"
)

// OpenCVBackend opens cameras through OpenCV's VideoCapture. It accepts
// any address OpenCV understands (rtsp://, http:// MJPEG, local files)
// and is the catch-all backend.
type OpenCVBackend struct{}

// Name returns the backend identifier.
func (OpenCVBackend) Name() string { return "opencv" }

// CanOpen reports whether this backend handles the address. OpenCV
// accepts anything, so this is always true.
func (OpenCVBackend) CanOpen(address string) bool { return true }

// Open connects to the camera at the given address.
func (OpenCVBackend) Open(address string) (Device, error) {
	vc, err := gocv.OpenVideoCapture(address)
	if err != nil {
		return nil, fmt.Errorf("opencv: failed to open %q: %w", address, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("opencv: capture not opened for %q", address)
	}

	logger.WithComponent("opencv").Debug().
		Str("address", address).
		Msg("Capture opened")

	return &openCVDevice{address: address, vc: vc}, nil
}

// openCVDevice wraps a gocv.VideoCapture. OpenCV buffers internally as
// soon as the capture is opened; the streaming flag only gates ReadFrame
// so that reads before OpenStream fail explicitly.
type openCVDevice struct {
	address   string
	mu        sync.Mutex
	vc        *gocv.VideoCapture
	streaming bool
	width     int
	height    int
}

func (d *openCVDevice) OpenStream() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vc == nil {
		return fmt.Errorf("opencv: capture closed")
	}
	d.streaming = true
	return nil
}

func (d *openCVDevice) StopStream() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.streaming = false
	return nil
}

func (d *openCVDevice) ReadFrame() (*pixel.RGB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vc == nil {
		return nil, fmt.Errorf("opencv: capture closed")
	}
	if !d.streaming {
		return nil, fmt.Errorf("opencv: stream not open")
	}

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := d.vc.Read(&mat); !ok || mat.Empty() {
		return nil, fmt.Errorf("opencv: failed to read frame from %q", d.address)
	}

	// OpenCV decodes to BGR; convert once per frame.
	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(mat, &rgb, gocv.ColorBGRToRGB)

	data, err := rgb.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("opencv: failed to extract frame data: %w", err)
	}

	frame := &pixel.RGB{
		Pix:    data,
		Width:  rgb.Cols(),
		Height: rgb.Rows(),
	}
	d.width = frame.Width
	d.height = frame.Height
	return frame, nil
}

func (d *openCVDevice) Resolution() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.width > 0 && d.height > 0 {
		return d.width, d.height
	}
	if d.vc == nil {
		return 0, 0
	}
	return int(d.vc.Get(gocv.VideoCaptureFrameWidth)),
		int(d.vc.Get(gocv.VideoCaptureFrameHeight))
}

func (d *openCVDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vc == nil {
		return nil
	}
	err := d.vc.Close()
	d.vc = nil
	d.streaming = false
	return err
}
