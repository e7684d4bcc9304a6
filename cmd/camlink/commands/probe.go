package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cdaudt/camlink/internal/camera"
	"github.com/cdaudt/camlink/internal/capture"
)

var probeCmd = &cobra.Command{
	Use:   "probe <address>",
	Short: "Open a camera address and report backend and resolution",
	Args:  cobra.ExactArgs(1),
	RunE:  runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	address := args[0]

	router := capture.DefaultRouter()
	backend, ok := router.BackendFor(address)
	if !ok {
		return fmt.Errorf("no backend accepts address %q", address)
	}
	fmt.Printf("Backend:    %s\n", backend.Name())

	cam, err := camera.New(address, camera.WithOpener(router))
	if err != nil {
		return err
	}
	defer cam.Close()

	if err := cam.OpenStream(); err != nil {
		return err
	}

	// Pull one frame so the resolution reflects the decoded stream.
	frame, err := cam.Frame()
	for attempt := 1; err != nil && attempt < 50; attempt++ {
		time.Sleep(100 * time.Millisecond)
		frame, err = cam.Frame()
	}
	if err != nil {
		return fmt.Errorf("stream opened but no frame decoded: %w", err)
	}

	fmt.Printf("Resolution: %dx%d\n", frame.Width, frame.Height)
	fmt.Printf("RGB bytes:  %d\n", cam.MinBufferSize(false))
	fmt.Printf("RGBA bytes: %d\n", cam.MinBufferSize(true))
	return nil
}
