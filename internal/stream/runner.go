// Package stream drives the per-camera capture loop: pull a frame from
// the camera handle, scale it to the configured output size, hand it to
// the output.
package stream

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/image/draw"

	"github.com/cdaudt/camlink/internal/camera"
	"github.com/cdaudt/camlink/internal/config"
	"github.com/cdaudt/camlink/internal/logger"
	"github.com/cdaudt/camlink/internal/output"
)

// Runner owns one camera handle and feeds its frames to an output. The
// camera requires a single logical owner; the runner is that owner and
// serializes every camera call behind camMu, including the ones the API
// makes through Snapshot and SetAddress.
type Runner struct {
	name string
	cfg  config.StreamConfig

	camMu sync.Mutex
	cam   *camera.Camera

	out output.Output

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup

	frames uint64
	drops  uint64
}

// NewRunner creates a runner for one camera.
func NewRunner(name string, cam *camera.Camera, out output.Output, cfg config.StreamConfig) *Runner {
	if cfg.FPS <= 0 {
		cfg.FPS = 10
	}
	return &Runner{
		name: name,
		cfg:  cfg,
		cam:  cam,
		out:  out,
	}
}

// Name returns the camera name this runner serves.
func (r *Runner) Name() string { return r.name }

// Start opens the camera stream and launches the capture loop.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("stream: runner %q already started", r.name)
	}

	r.camMu.Lock()
	err := r.cam.OpenStream()
	r.camMu.Unlock()
	if err != nil {
		return err
	}

	if err := r.out.Start(); err != nil {
		return err
	}

	r.running = true
	r.stop = make(chan struct{})
	r.wg.Add(1)
	go r.loop(r.stop)

	logger.WithComponent("stream").Info().
		Str("camera", r.name).
		Int("fps", r.cfg.FPS).
		Msg("Runner started")
	return nil
}

// Stop halts the capture loop and stops the camera stream and output.
// Camera teardown errors are logged and discarded.
func (r *Runner) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	close(r.stop)
	r.mu.Unlock()

	r.wg.Wait()

	r.camMu.Lock()
	if err := r.cam.StopStream(); err != nil {
		logger.WithComponent("stream").Debug().
			Err(err).
			Str("camera", r.name).
			Msg("Stop stream failed")
	}
	r.camMu.Unlock()

	return r.out.Stop()
}

// IsRunning reports whether the capture loop is active.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) loop(stop chan struct{}) {
	defer r.wg.Done()

	log := logger.WithComponent("stream")
	interval := time.Second / time.Duration(r.cfg.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.camMu.Lock()
			frame, err := r.cam.Frame()
			r.camMu.Unlock()
			if err != nil {
				// Transient by contract; count it and try again on
				// the next tick.
				atomic.AddUint64(&r.drops, 1)
				log.Debug().
					Err(err).
					Str("camera", r.name).
					Msg("Frame capture failed")
				continue
			}

			img := r.render(frame.ToRGBA().Image())
			if err := r.out.WriteFrame(img); err != nil {
				log.Debug().
					Err(err).
					Str("camera", r.name).
					Msg("Frame write failed")
				continue
			}
			atomic.AddUint64(&r.frames, 1)
		}
	}
}

// render scales the frame to the configured output size when one is
// set; otherwise the native frame passes through.
func (r *Runner) render(img *image.RGBA) *image.RGBA {
	w, h := r.cfg.Width, r.cfg.Height
	if w <= 0 || h <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Snapshot grabs one frame through the runner's serialization.
func (r *Runner) Snapshot() (*image.RGBA, error) {
	r.camMu.Lock()
	frame, err := r.cam.Frame()
	r.camMu.Unlock()
	if err != nil {
		return nil, err
	}
	return frame.ToRGBA().Image(), nil
}

// Address returns the camera's current address.
func (r *Runner) Address() string {
	r.camMu.Lock()
	defer r.camMu.Unlock()
	return r.cam.Address()
}

// SetAddress repoints the camera at a new address. The replacement
// device starts with a closed stream, so the stream is reopened when
// the loop is running.
func (r *Runner) SetAddress(address string) error {
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()

	r.camMu.Lock()
	defer r.camMu.Unlock()

	if err := r.cam.SetAddress(address); err != nil {
		return err
	}
	if running {
		return r.cam.OpenStream()
	}
	return nil
}

// Resolution reports the camera's current frame dimensions.
func (r *Runner) Resolution() (int, int) {
	r.camMu.Lock()
	defer r.camMu.Unlock()
	return r.cam.Resolution()
}

// Close stops the runner and releases the camera.
func (r *Runner) Close() error {
	err := r.Stop()

	r.camMu.Lock()
	if cerr := r.cam.Close(); cerr != nil {
		logger.WithComponent("stream").Debug().
			Err(cerr).
			Str("camera", r.name).
			Msg("Camera close failed")
	}
	r.camMu.Unlock()

	return err
}

// RunnerStats is a snapshot of one runner's counters.
type RunnerStats struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Running bool   `json:"running"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Frames  uint64 `json:"frames"`
	Drops   uint64 `json:"drops"`
}

// Stats returns the runner's current counters.
func (r *Runner) Stats() RunnerStats {
	w, h := r.Resolution()
	return RunnerStats{
		Name:    r.name,
		Address: r.Address(),
		Running: r.IsRunning(),
		Width:   w,
		Height:  h,
		Frames:  atomic.LoadUint64(&r.frames),
		Drops:   atomic.LoadUint64(&r.drops),
	}
}
