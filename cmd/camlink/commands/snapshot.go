package commands

import (
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cdaudt/camlink/internal/camera"
)

var (
	snapshotOutput  string
	snapshotRetries int
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <address>",
	Short: "Grab one frame from a camera and write it to a file",
	Example: `  # JPEG snapshot from an RTSP camera
  camlink snapshot rtsp://10.0.0.12:554/stream -o frame.jpg

  # PNG output
  camlink snapshot http://10.0.0.13/mjpeg -o frame.png`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotOutput, "output", "o", "snapshot.jpg", "output file (.jpg or .png)")
	snapshotCmd.Flags().IntVar(&snapshotRetries, "retries", 50, "frame read attempts before giving up")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	address := args[0]

	cam, err := camera.New(address)
	if err != nil {
		return err
	}
	defer cam.Close()

	if err := cam.OpenStream(); err != nil {
		return err
	}

	// The first frames may not be decoded yet, especially over RTSP.
	frame, err := cam.Frame()
	for attempt := 1; err != nil && attempt < snapshotRetries; attempt++ {
		time.Sleep(100 * time.Millisecond)
		frame, err = cam.Frame()
	}
	if err != nil {
		return fmt.Errorf("no frame after %d attempts: %w", snapshotRetries, err)
	}

	f, err := os.Create(snapshotOutput)
	if err != nil {
		return err
	}
	defer f.Close()

	img := frame.ToRGBA().Image()
	switch strings.ToLower(filepath.Ext(snapshotOutput)) {
	case ".png":
		err = png.Encode(f, img)
	default:
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	fmt.Printf("Wrote %dx%d snapshot to %s\n", frame.Width, frame.Height, snapshotOutput)
	return nil
}
