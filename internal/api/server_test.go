package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cdaudt/camlink/internal/camera"
	"github.com/cdaudt/camlink/internal/capture"
	"github.com/cdaudt/camlink/internal/config"
	"github.com/cdaudt/camlink/internal/output"
	"github.com/cdaudt/camlink/internal/pixel"
	"github.com/cdaudt/camlink/internal/stream"
)

type fakeDevice struct {
	width, height int
	streaming     bool
}

func (d *fakeDevice) OpenStream() error { d.streaming = true; return nil }
func (d *fakeDevice) StopStream() error { d.streaming = false; return nil }

func (d *fakeDevice) ReadFrame() (*pixel.RGB, error) {
	if !d.streaming {
		return nil, errors.New("stream not open")
	}
	return pixel.NewRGB(d.width, d.height), nil
}

func (d *fakeDevice) Resolution() (int, int) { return d.width, d.height }
func (d *fakeDevice) Close() error { return nil }

type fakeOpener struct {
	devices map[string]*fakeDevice
}

func (o *fakeOpener) Open(address string) (capture.Device, error) {
	d, ok := o.devices[address]
	if !ok {
		return nil, fmt.Errorf("unknown address %q", address)
	}
	return d, nil
}

func newTestServer(t *testing.T) (*Server, *stream.Runner, *config.Manager) {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	mgr, err := config.NewManager(cfgPath)
	if err != nil {
		t.Fatalf("config manager: %v", err)
	}
	if err := mgr.AddCamera(config.CameraConfig{Name: "front", Address: "rtsp://front"}); err != nil {
		t.Fatalf("add camera: %v", err)
	}

	opener := &fakeOpener{devices: map[string]*fakeDevice{
		"rtsp://front": {width: 8, height: 6},
		"rtsp://moved": {width: 16, height: 12},
	}}
	cam, err := camera.New("rtsp://front", camera.WithOpener(opener))
	if err != nil {
		t.Fatalf("camera: %v", err)
	}

	out := output.NewMJPEGOutput(output.Config{FPS: 100})
	runner := stream.NewRunner("front", cam, out, config.StreamConfig{FPS: 100})
	t.Cleanup(func() { runner.Close() })

	runners := stream.NewSet()
	if err := runners.Add(runner); err != nil {
		t.Fatalf("add runner: %v", err)
	}

	srv := NewServer(mgr, runners, map[string]*output.MJPEGOutput{"front": out})
	return srv, runner, mgr
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status  string `json:"status"`
		Cameras int    `json:"cameras"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Cameras != 1 {
		t.Errorf("body = %+v", body)
	}
}

func TestListCameras(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/api/cameras")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats []stream.RunnerStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(stats) != 1 || stats[0].Name != "front" || stats[0].Address != "rtsp://front" {
		t.Errorf("stats = %+v", stats)
	}
}

func TestGetCamera(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/api/cameras/front")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	rec = get(t, srv.Handler(), "/api/cameras/back")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing camera: status = %d, want 404", rec.Code)
	}
}

func TestSetAddress(t *testing.T) {
	srv, runner, mgr := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/cameras/front/address",
		strings.NewReader(`{"address":"rtsp://moved"}`))
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if runner.Address() != "rtsp://moved" {
		t.Errorf("runner address = %q", runner.Address())
	}
	cam, err := mgr.GetCamera("front")
	if err != nil {
		t.Fatalf("GetCamera: %v", err)
	}
	if cam.Address != "rtsp://moved" {
		t.Errorf("persisted address = %q", cam.Address)
	}
}

func TestSetAddressValidation(t *testing.T) {
	srv, runner, _ := newTestServer(t)

	for _, body := range []string{``, `{}`, `{"address":""}`, `not json`} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/cameras/front/address",
			strings.NewReader(body))
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}

	// Unreachable address leaves the runner untouched.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/cameras/front/address",
		strings.NewReader(`{"address":"rtsp://nowhere"}`))
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if runner.Address() != "rtsp://front" {
		t.Errorf("address changed to %q after failed swap", runner.Address())
	}
}

func TestSnapshot(t *testing.T) {
	srv, runner, _ := newTestServer(t)

	// No stream open yet.
	rec := get(t, srv.Handler(), "/api/cameras/front/snapshot")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	if err := runner.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rec = get(t, srv.Handler(), "/api/cameras/front/snapshot")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.Bytes()
	if len(body) < 2 || body[0] != 0xFF || body[1] != 0xD8 {
		t.Error("body is not a JPEG")
	}
}

func TestStreamStats(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/api/cameras/front/stream/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	rec = get(t, srv.Handler(), "/api/cameras/back/stream/stats")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing camera: status = %d, want 404", rec.Code)
	}
}

func TestGetConfig(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/api/config")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var cfg config.Config
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cfg.Cameras) != 1 || cfg.Cameras[0].Name != "front" {
		t.Errorf("config = %+v", cfg)
	}
}
