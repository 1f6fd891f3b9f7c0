package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"voicemail-stt/internal/app"
)

var configPath string

func init() {
	Cmd.Flags().StringVarP(&configPath, "config", "c", "overlay.yaml",
		"overlay configuration file (missing file falls back to defaults)")
}

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge daemon the UI-wiring layer connects to",
	Long: `Run the bridge daemon the UI-wiring layer connects to.

- Loads persisted transcriptions and the voicemail list on startup
- Accepts DOM mutation snapshots and coalesces them into re-scans
- Accepts transcription requests and streams updates back over SSE`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bridge, err := app.InitializeBridge(configPath)
		if err != nil {
			return err
		}
		logger := bridge.Logger

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := bridge.Session.Init(ctx); err != nil {
			return err
		}
		go bridge.Session.SweepExisting(context.Background())

		// Flush the cache on termination.
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigs
			logger.Info("shutting down")
			if err := bridge.Session.Close(); err != nil {
				logger.Warnw("session close failed", "error", err)
			}
			os.Exit(0)
		}()

		return bridge.Server.Start()
	},
}
