package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "camlink",
		Short: "camlink - expose network cameras as uniform capture devices",
		Long: `camlink bridges IP cameras into uniform capture devices. It opens
RTSP and HTTP camera streams through OpenCV or GStreamer, decodes them
into raw frames, and serves MJPEG previews, snapshots and a REST API.

Features:
  • OpenCV and GStreamer capture backends, routed by address
  • Per-camera MJPEG preview stream
  • One-shot snapshots to file or over HTTP
  • Persistent YAML configuration
  • REST API with a websocket stats feed`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/camlink/config.yaml)")
	rootCmd.PersistentFlags().Int("port", 0, "server port (default is 8080)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	viper.BindPFlag("server_port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path.
func GetConfigFile() string {
	return cfgFile
}
