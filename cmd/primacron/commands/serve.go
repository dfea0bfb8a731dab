package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/primus/primacron/config"
	"github.com/primus/primacron/errors"
	"github.com/primus/primacron/gateway"
	"github.com/primus/primacron/logger"
)

var serveAllowedOrigins string

// ServeCmd starts a gateway node: the HTTP front door, the realtime
// transport endpoint, and the peer broadcast endpoint, all on one listener.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a primacron gateway node",
	RunE:  runServe,
}

func init() {
	ServeCmd.Flags().StringVar(&serveAllowedOrigins, "allowed-origins", "", "comma-separated list of allowed CORS/WebSocket origin prefixes")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	var allowedOrigins []string
	if serveAllowedOrigins != "" {
		allowedOrigins = strings.Split(serveAllowedOrigins, ",")
	}

	built := gateway.New(cfg, allowedOrigins, logger.Logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- built.Node.Run()
	}()

	logger.Infow("gateway node starting",
		"node_url", cfg.NodeURL(), "endpoint", cfg.Endpoint, "broadcast", cfg.Broadcast)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return errors.Wrap(err, "gateway node failed")
	case <-sigChan:
		fmt.Println("\nShutting down gracefully (press Ctrl+C again to force)...")

		shutdownDone := make(chan error, 1)
		go func() {
			shutdownDone <- built.Node.Shutdown(context.Background())
		}()

		select {
		case err := <-shutdownDone:
			if err != nil {
				return errors.Wrap(err, "shutdown error")
			}
			fmt.Println("gateway node stopped cleanly")
			return nil
		case <-sigChan:
			fmt.Println("\nforce shutdown — exiting immediately")
			os.Exit(1)
			return nil
		}
	}
}
