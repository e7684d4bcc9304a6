// Package gst implements a capture device backed by a GStreamer RTSP
// pipeline. Decoding happens inside GStreamer; this package pulls raw
// RGB samples from an appsink and keeps the most recent one.
package gst

import (
	"fmt"
	"sync"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/cdaudt/camlink/internal/logger"
	"github.com/cdaudt/camlink/internal/pixel"
)

// Device is a GStreamer-backed capture device for a single RTSP camera.
type Device struct {
	address string

	mu       sync.RWMutex
	pipeline *gst.Pipeline
	appsink  *app.Sink
	latest   *pixel.RGB
	width    int
	height   int
	running  bool
	stopChan chan struct{}
	poll     sync.WaitGroup
}

// Open builds the pipeline for the given RTSP address. The pipeline is
// created up front so that a bad address fails at construction, but no
// frames flow until OpenStream.
func Open(address string) (*Device, error) {
	// rtspsrc negotiates the transport, decodebin picks a decoder for
	// whatever the camera sends, videoconvert normalizes to packed RGB.
	// emit-signals=false with polling avoids CGO callback instability.
	pipelineStr := fmt.Sprintf(
		"rtspsrc location=%s latency=200 ! "+
			"decodebin ! "+
			"videoconvert ! "+
			"video/x-raw,format=RGB ! "+
			"appsink name=sink emit-signals=false max-buffers=2 drop=true",
		address,
	)
	return newDevice(address, pipelineStr)
}

// newDevice builds a device around an arbitrary pipeline description.
// The pipeline must carry an appsink named "sink".
func newDevice(address, pipelineStr string) (*Device, error) {
	gst.Init(nil)

	logger.WithComponent("gst").Debug().
		Str("pipeline", pipelineStr).
		Msg("Creating capture pipeline")

	pipeline, err := gst.NewPipelineFromString(pipelineStr)
	if err != nil {
		return nil, fmt.Errorf("gst: failed to create pipeline for %q: %w", address, err)
	}

	sinkElement, err := pipeline.GetElementByName("sink")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		pipeline.Unref()
		return nil, fmt.Errorf("gst: failed to get appsink: %w", err)
	}

	return &Device{
		address:  address,
		pipeline: pipeline,
		appsink:  app.SinkFromElement(sinkElement),
	}, nil
}

// OpenStream moves the pipeline to PLAYING and starts pulling samples.
func (d *Device) OpenStream() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pipeline == nil {
		return fmt.Errorf("gst: device closed")
	}
	if d.running {
		return nil
	}

	if err := d.pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("gst: failed to start pipeline: %w", err)
	}

	d.running = true
	d.stopChan = make(chan struct{})
	d.poll.Add(1)
	go d.pollSamples(d.stopChan)

	logger.WithComponent("gst").Info().
		Str("address", d.address).
		Msg("Stream opened")
	return nil
}

// StopStream pauses frame delivery. The pipeline stays built so the
// stream can be reopened. The poller is joined before the pipeline
// changes state.
func (d *Device) StopStream() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	close(d.stopChan)
	d.stopChan = nil
	d.mu.Unlock()

	d.poll.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pipeline != nil {
		if err := d.pipeline.SetState(gst.StatePaused); err != nil {
			return fmt.Errorf("gst: failed to pause pipeline: %w", err)
		}
	}
	return nil
}

// ReadFrame returns a copy of the most recent decoded frame.
func (d *Device) ReadFrame() (*pixel.RGB, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.running {
		return nil, fmt.Errorf("gst: stream not open")
	}
	if d.latest == nil {
		return nil, fmt.Errorf("gst: no frame decoded yet for %q", d.address)
	}
	return d.latest.Clone(), nil
}

// Resolution reports the dimensions of the last decoded frame, (0, 0)
// before the first sample arrives.
func (d *Device) Resolution() (int, int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.width, d.height
}

// Close tears the pipeline down. An in-flight TryPullSample must not
// observe a destroyed pipeline, so the poller is joined outside the
// lock before the unref.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.running {
		d.running = false
		close(d.stopChan)
		d.stopChan = nil
	}
	d.mu.Unlock()

	d.poll.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pipeline != nil {
		d.pipeline.SetState(gst.StateNull)
		d.pipeline.Unref()
		d.pipeline = nil
		d.appsink = nil
	}
	return nil
}

// pollSamples pulls samples on a ticker instead of signal callbacks.
func (d *Device) pollSamples(stop chan struct{}) {
	defer d.poll.Done()

	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			d.mu.RLock()
			appsink := d.appsink
			running := d.running
			d.mu.RUnlock()

			if !running || appsink == nil {
				continue
			}

			sample := appsink.TryPullSample(time.Millisecond)
			if sample == nil {
				continue
			}
			// go-gst owns the sample; no Unref here.
			d.storeSample(sample)
		}
	}
}

// storeSample extracts the RGB payload from a sample and keeps it as
// the latest frame.
func (d *Device) storeSample(sample *gst.Sample) {
	buffer := sample.GetBuffer()
	if buffer == nil {
		return
	}

	caps := sample.GetCaps()
	if caps == nil {
		return
	}
	structure := caps.GetStructureAt(0)
	if structure == nil {
		return
	}

	widthVal, _ := structure.GetValue("width")
	heightVal, _ := structure.GetValue("height")
	w, ok := widthVal.(int)
	if !ok {
		return
	}
	h, ok := heightVal.(int)
	if !ok {
		return
	}

	mapInfo := buffer.Map(gst.MapRead)
	if mapInfo == nil {
		return
	}
	defer buffer.Unmap()

	data := mapInfo.Bytes()
	want := w * h * 3
	if len(data) < want {
		logger.WithComponent("gst").Debug().
			Int("got", len(data)).
			Int("want", want).
			Msg("Short sample, skipping")
		return
	}

	frame := pixel.NewRGB(w, h)
	copy(frame.Pix, data[:want])

	d.mu.Lock()
	d.latest = frame
	d.width = w
	d.height = h
	d.mu.Unlock()
}
