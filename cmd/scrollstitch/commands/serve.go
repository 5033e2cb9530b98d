package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanchriswhite/ScrollStitch/internal/api"
	"github.com/bryanchriswhite/ScrollStitch/internal/logger"
	"github.com/bryanchriswhite/ScrollStitch/internal/scrolling"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ScrollStitch capture server",
	Long: `Start the ScrollStitch HTTP server.

The server lists windows and runs scrolling captures on request. Captures
are queued and run one at a time; each finished capture is saved to the
output directory and can be downloaded or watched live over WebSocket.`,
	Example: `  # Start server on default port (8080)
  scrollstitch serve

  # Start server on custom port
  scrollstitch serve --port 9090

  # Queue a capture of a window
  curl -X POST localhost:8080/api/captures -d '{"title": "Release notes"}'`,
	RunE: runServe,
}

var serveQueue int

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "server port (default is 8080)")
	serveCmd.Flags().IntVar(&serveQueue, "queue", 16, "captures that may wait behind the running one")
}

func runServe(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg := configMgr.Get()
	log := logger.WithComponent("serve")

	log.Info().
		Str("config", configMgr.GetConfigPath()).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	writer, err := cfg.Writer()
	if err != nil {
		return err
	}

	sess, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctrl, err := sess.controller(cfg)
	if err != nil {
		return err
	}
	worker := scrolling.NewWorker(ctrl, serveQueue)
	defer worker.Close()

	server := api.NewServer(sess.windows, worker, writer)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.ServerPort)
	}()

	fmt.Println()
	log.Info().Msg("✅ ScrollStitch is running!")
	log.Info().Msgf("   - API: http://localhost:%d/api", cfg.ServerPort)
	log.Info().Msgf("   - Saving to: %s", writer.Dir)
	log.Info().Msg("   - Press Ctrl+C to stop")
	fmt.Println()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-sigChan:
	}

	log.Info().Msg("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
