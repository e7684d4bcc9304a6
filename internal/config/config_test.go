package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempConfigPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.yaml")
}

func TestNewManagerCreatesDefaults(t *testing.T) {
	path := tempConfigPath(t)

	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	cfg := m.Get()
	if cfg.ServerPort != 8080 {
		t.Errorf("port = %d, want 8080", cfg.ServerPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want info", cfg.LogLevel)
	}
	if cfg.Stream.FPS != 10 || cfg.Stream.JPEGQuality != 90 {
		t.Errorf("stream defaults = %+v", cfg.Stream)
	}
	if len(cfg.Cameras) != 0 {
		t.Errorf("default roster not empty: %v", cfg.Cameras)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := tempConfigPath(t)

	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if err := m.AddCamera(CameraConfig{Name: "front", Address: "rtsp://10.0.0.5/live"}); err != nil {
		t.Fatalf("AddCamera failed: %v", err)
	}
	if err := m.SetPort(9000); err != nil {
		t.Fatalf("SetPort failed: %v", err)
	}
	if err := m.SetLogLevel("debug"); err != nil {
		t.Fatalf("SetLogLevel failed: %v", err)
	}

	reloaded, err := NewManager(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	cfg := reloaded.Get()
	if cfg.ServerPort != 9000 {
		t.Errorf("port = %d, want 9000", cfg.ServerPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.LogLevel)
	}
	if len(cfg.Cameras) != 1 || cfg.Cameras[0].Address != "rtsp://10.0.0.5/live" {
		t.Errorf("roster = %+v", cfg.Cameras)
	}
}

func TestAddCameraValidation(t *testing.T) {
	m, err := NewManager(tempConfigPath(t))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if err := m.AddCamera(CameraConfig{Address: "rtsp://x"}); err == nil {
		t.Error("camera without name accepted")
	}
	if err := m.AddCamera(CameraConfig{Name: "front"}); err == nil {
		t.Error("camera without address accepted")
	}
	if err := m.AddCamera(CameraConfig{Name: "front", Address: "rtsp://x"}); err != nil {
		t.Fatalf("AddCamera failed: %v", err)
	}
	if err := m.AddCamera(CameraConfig{Name: "front", Address: "rtsp://y"}); err == nil {
		t.Error("duplicate name accepted")
	}
}

func TestRemoveCamera(t *testing.T) {
	m, err := NewManager(tempConfigPath(t))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if err := m.AddCamera(CameraConfig{Name: "front", Address: "rtsp://x"}); err != nil {
		t.Fatalf("AddCamera failed: %v", err)
	}

	if err := m.RemoveCamera("front"); err != nil {
		t.Fatalf("RemoveCamera failed: %v", err)
	}
	if _, err := m.GetCamera("front"); err == nil {
		t.Error("removed camera still present")
	}
	if err := m.RemoveCamera("front"); err == nil {
		t.Error("removing missing camera succeeded")
	}
}

func TestSetCameraAddress(t *testing.T) {
	m, err := NewManager(tempConfigPath(t))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if err := m.AddCamera(CameraConfig{Name: "front", Address: "rtsp://old"}); err != nil {
		t.Fatalf("AddCamera failed: %v", err)
	}

	if err := m.SetCameraAddress("front", "rtsp://new"); err != nil {
		t.Fatalf("SetCameraAddress failed: %v", err)
	}
	cam, err := m.GetCamera("front")
	if err != nil {
		t.Fatalf("GetCamera failed: %v", err)
	}
	if cam.Address != "rtsp://new" {
		t.Errorf("address = %q, want rtsp://new", cam.Address)
	}
	if err := m.SetCameraAddress("back", "rtsp://x"); err == nil {
		t.Error("updating unknown camera succeeded")
	}
}

func TestLoadFillsMissingDefaults(t *testing.T) {
	path := tempConfigPath(t)
	partial := "cameras:\n  - name: front\n    address: rtsp://x\n"
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	cfg := m.Get()
	if cfg.ServerPort != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.ServerPort)
	}
	if cfg.Stream.FPS != 10 || cfg.Stream.JPEGQuality != 90 {
		t.Errorf("stream defaults not applied: %+v", cfg.Stream)
	}
	if len(cfg.Cameras) != 1 {
		t.Errorf("roster = %+v", cfg.Cameras)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := tempConfigPath(t)
	if err := os.WriteFile(path, []byte("cameras: [\n"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := NewManager(path)
	if err == nil {
		t.Fatal("malformed config accepted")
	}
	if !strings.Contains(err.Error(), "config") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	m, err := NewManager(tempConfigPath(t))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if err := m.AddCamera(CameraConfig{Name: "front", Address: "rtsp://x"}); err != nil {
		t.Fatalf("AddCamera failed: %v", err)
	}

	cfg := m.Get()
	cfg.Cameras[0].Address = "rtsp://mutated"

	cam, err := m.GetCamera("front")
	if err != nil {
		t.Fatalf("GetCamera failed: %v", err)
	}
	if cam.Address != "rtsp://x" {
		t.Error("Get exposed internal camera slice")
	}
}
