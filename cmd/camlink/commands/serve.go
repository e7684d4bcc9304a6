package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cdaudt/camlink/internal/api"
	"github.com/cdaudt/camlink/internal/camera"
	"github.com/cdaudt/camlink/internal/capture"
	"github.com/cdaudt/camlink/internal/config"
	"github.com/cdaudt/camlink/internal/logger"
	"github.com/cdaudt/camlink/internal/output"
	"github.com/cdaudt/camlink/internal/stream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the camlink server",
	Long: `Start the camlink HTTP server and the capture loop for every
configured camera.

The server provides per-camera MJPEG previews, JPEG snapshots and a
REST API for address reconfiguration and stats.`,
	Example: `  # Start server on default port (8080)
  camlink serve

  # Start server on custom port
  camlink serve --port 9090

  # Start with debug logging
  camlink serve --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to initialize config manager: %w", err)
	}

	if viper.IsSet("server_port") {
		if port := viper.GetInt("server_port"); port > 0 {
			configMgr.SetPort(port)
		}
	}
	if viper.IsSet("log_level") {
		if level := viper.GetString("log_level"); level != "" {
			configMgr.SetLogLevel(level)
		}
	}

	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, true)
	log := logger.WithComponent("serve")
	log.Info().Str("path", configMgr.GetConfigPath()).Msg("Configuration loaded")

	if len(cfg.Cameras) == 0 {
		log.Warn().Msg("No cameras configured; the API will serve an empty roster")
	}

	runners := stream.NewSet()
	outputs := make(map[string]*output.MJPEGOutput)
	defer runners.CloseAll()

	for _, camCfg := range cfg.Cameras {
		cam, err := newCamera(camCfg)
		if err != nil {
			log.Error().
				Err(err).
				Str("camera", camCfg.Name).
				Str("address", camCfg.Address).
				Msg("Failed to open camera, skipping")
			continue
		}

		out := output.NewMJPEGOutput(output.Config{
			FPS:         cfg.Stream.FPS,
			JPEGQuality: cfg.Stream.JPEGQuality,
		})
		runner := stream.NewRunner(camCfg.Name, cam, out, cfg.Stream)

		if err := runner.Start(); err != nil {
			log.Error().
				Err(err).
				Str("camera", camCfg.Name).
				Msg("Failed to start capture loop, skipping")
			cam.Close()
			continue
		}

		if err := runners.Add(runner); err != nil {
			log.Error().
				Err(err).
				Str("camera", camCfg.Name).
				Msg("Duplicate camera name, skipping")
			runner.Close()
			continue
		}
		outputs[camCfg.Name] = out
		log.Info().
			Str("camera", camCfg.Name).
			Str("address", camCfg.Address).
			Msg("Camera started")
	}

	server := api.NewServer(configMgr, runners, outputs)
	go func() {
		if err := server.Start(cfg.ServerPort); err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	log.Info().
		Int("port", cfg.ServerPort).
		Int("cameras", len(outputs)).
		Msg("camlink is running, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down")
	return nil
}

// newCamera opens a camera, honoring the config's backend pin when one
// is set. A pinned backend bypasses address routing.
func newCamera(camCfg config.CameraConfig) (*camera.Camera, error) {
	if camCfg.Backend == "" {
		return camera.New(camCfg.Address)
	}
	backend, ok := capture.DefaultRouter().Backend(camCfg.Backend)
	if !ok {
		return nil, fmt.Errorf("unknown capture backend %q", camCfg.Backend)
	}
	return camera.New(camCfg.Address, camera.WithOpener(backend))
}
