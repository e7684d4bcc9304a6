package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/cdaudt/camlink/internal/config"
	"github.com/cdaudt/camlink/internal/logger"
	"github.com/cdaudt/camlink/internal/output"
	"github.com/cdaudt/camlink/internal/stream"
)

// Server is the HTTP API over the camera roster: status, snapshots,
// MJPEG previews, and a websocket stats feed.
type Server struct {
	router    *mux.Router
	configMgr *config.Manager
	runners   *stream.Set
	outputs   map[string]*output.MJPEGOutput
	upgrader  websocket.Upgrader
}

// NewServer creates a new API server over the given runners. outputs
// maps camera names to their MJPEG outputs for the preview endpoints.
func NewServer(configMgr *config.Manager, runners *stream.Set, outputs map[string]*output.MJPEGOutput) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		configMgr: configMgr,
		runners:   runners,
		outputs:   outputs,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/cameras", s.handleListCameras).Methods("GET")
	api.HandleFunc("/cameras/{name}", s.handleGetCamera).Methods("GET")
	api.HandleFunc("/cameras/{name}/address", s.handleSetAddress).Methods("POST")
	api.HandleFunc("/cameras/{name}/snapshot", s.handleSnapshot).Methods("GET")
	api.HandleFunc("/cameras/{name}/stream", s.handleStream).Methods("GET")
	api.HandleFunc("/cameras/{name}/stream/stats", s.handleStreamStats).Methods("GET")

	api.HandleFunc("/config", s.handleGetConfig).Methods("GET")
	api.HandleFunc("/events", s.handleEvents)
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start starts the HTTP server.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logger.WithComponent("api").Info().
		Str("addr", addr).
		Msg("Starting server")
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleListCameras(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.runners.Stats())
}

func (s *Server) handleGetCamera(w http.ResponseWriter, r *http.Request) {
	runner, ok := s.runner(w, r)
	if !ok {
		return
	}
	writeJSON(w, runner.Stats())
}

func (s *Server) handleSetAddress(w http.ResponseWriter, r *http.Request) {
	runner, ok := s.runner(w, r)
	if !ok {
		return
	}

	var req struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Address == "" {
		http.Error(w, "address is required", http.StatusBadRequest)
		return
	}

	if err := runner.SetAddress(req.Address); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if err := s.configMgr.SetCameraAddress(runner.Name(), req.Address); err != nil {
		logger.WithComponent("api").Warn().
			Err(err).
			Str("camera", runner.Name()).
			Msg("Failed to persist new address")
	}

	writeJSON(w, runner.Stats())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	runner, ok := s.runner(w, r)
	if !ok {
		return
	}

	img, err := runner.Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	quality := s.configMgr.Get().Stream.JPEGQuality
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
	w.Write(buf.Bytes())
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	out, ok := s.outputs[name]
	if !ok {
		http.Error(w, fmt.Sprintf("camera not found: %s", name), http.StatusNotFound)
		return
	}
	out.StreamHandler()(w, r)
}

func (s *Server) handleStreamStats(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	out, ok := s.outputs[name]
	if !ok {
		http.Error(w, fmt.Sprintf("camera not found: %s", name), http.StatusNotFound)
		return
	}
	out.StatsHandler()(w, r)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.configMgr.Get())
}

// handleEvents upgrades to a websocket and pushes runner stats once a
// second until the client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithComponent("api").Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.WriteJSON(s.runners.Stats()); err != nil {
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"cameras": len(s.runners.Names()),
	})
}

func (s *Server) runner(w http.ResponseWriter, r *http.Request) (*stream.Runner, bool) {
	name := mux.Vars(r)["name"]
	runner, ok := s.runners.Get(name)
	if !ok {
		http.Error(w, fmt.Sprintf("camera not found: %s", name), http.StatusNotFound)
		return nil, false
	}
	return runner, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
