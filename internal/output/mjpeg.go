package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"sync"
	"time"

	"github.com/cdaudt/camlink/internal/logger"
)

// MJPEGOutput streams frames as Motion JPEG over HTTP, one multipart
// part per frame. Slow clients drop frames instead of applying
// backpressure to the capture loop.
type MJPEGOutput struct {
	config  Config
	mu      sync.RWMutex
	running bool

	lastUpdate time.Time
	frameCount uint64
	startTime  time.Time

	clientsMu sync.RWMutex
	clients   map[chan []byte]struct{}
}

// NewMJPEGOutput creates a new MJPEG stream output.
func NewMJPEGOutput(config Config) *MJPEGOutput {
	if config.JPEGQuality <= 0 {
		config.JPEGQuality = 90
	}
	return &MJPEGOutput{
		config:  config,
		clients: make(map[chan []byte]struct{}),
	}
}

// Start initializes the MJPEG output. The HTTP handler is mounted
// separately via StreamHandler.
func (m *MJPEGOutput) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("mjpeg output already running")
	}
	m.running = true
	m.startTime = time.Now()
	m.frameCount = 0

	logger.WithComponent("mjpeg").Info().
		Int("fps", m.config.FPS).
		Int("quality", m.config.JPEGQuality).
		Msg("Output started")
	return nil
}

// Stop shuts the output down and disconnects all clients.
func (m *MJPEGOutput) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false

	m.clientsMu.Lock()
	for ch := range m.clients {
		close(ch)
	}
	m.clients = make(map[chan []byte]struct{})
	m.clientsMu.Unlock()

	logger.WithComponent("mjpeg").Info().
		Uint64("frames", m.frameCount).
		Msg("Output stopped")
	return nil
}

// WriteFrame encodes the frame as JPEG and broadcasts it.
func (m *MJPEGOutput) WriteFrame(frame *image.RGBA) error {
	if !m.IsRunning() {
		return fmt.Errorf("mjpeg output not running")
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, frame, &jpeg.Options{Quality: m.config.JPEGQuality}); err != nil {
		return fmt.Errorf("failed to encode JPEG: %w", err)
	}
	jpegData := buf.Bytes()

	m.mu.Lock()
	m.lastUpdate = time.Now()
	m.frameCount++
	m.mu.Unlock()

	m.clientsMu.RLock()
	for ch := range m.clients {
		select {
		case ch <- jpegData:
		default:
			// Client is slow, skip this frame.
		}
	}
	m.clientsMu.RUnlock()

	return nil
}

// Name returns the output type name.
func (m *MJPEGOutput) Name() string {
	return "MJPEG HTTP Stream"
}

// IsRunning returns true if the output is active.
func (m *MJPEGOutput) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// ClientCount reports the number of connected stream clients.
func (m *MJPEGOutput) ClientCount() int {
	m.clientsMu.RLock()
	defer m.clientsMu.RUnlock()
	return len(m.clients)
}

// StreamHandler returns an http.HandlerFunc serving the MJPEG stream.
func (m *MJPEGOutput) StreamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Connection", "close")

		frameChan := make(chan []byte, 2)

		m.clientsMu.Lock()
		m.clients[frameChan] = struct{}{}
		clientCount := len(m.clients)
		m.clientsMu.Unlock()

		log := logger.WithComponent("mjpeg")
		log.Info().Int("total", clientCount).Msg("Client connected")

		defer func() {
			m.clientsMu.Lock()
			delete(m.clients, frameChan)
			remaining := len(m.clients)
			m.clientsMu.Unlock()
			log.Info().Int("remaining", remaining).Msg("Client disconnected")
		}()

		for jpegData := range frameChan {
			if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpegData)); err != nil {
				return
			}
			if _, err := w.Write(jpegData); err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "\r\n"); err != nil {
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}

// Stats is a snapshot of the output's counters.
type Stats struct {
	Running    bool      `json:"running"`
	FrameCount uint64    `json:"frame_count"`
	FPS        float64   `json:"fps"`
	Clients    int       `json:"clients"`
	LastUpdate time.Time `json:"last_update"`
}

// GetStats returns current output statistics.
func (m *MJPEGOutput) GetStats() Stats {
	m.mu.RLock()
	running := m.running
	frameCount := m.frameCount
	startTime := m.startTime
	lastUpdate := m.lastUpdate
	m.mu.RUnlock()

	var fps float64
	if running && !startTime.IsZero() {
		if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
			fps = float64(frameCount) / elapsed
		}
	}

	return Stats{
		Running:    running,
		FrameCount: frameCount,
		FPS:        fps,
		Clients:    m.ClientCount(),
		LastUpdate: lastUpdate,
	}
}

// StatsHandler returns an http.HandlerFunc reporting stream statistics
// as JSON.
func (m *MJPEGOutput) StatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.GetStats())
	}
}
