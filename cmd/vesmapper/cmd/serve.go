package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solatis/vesmapper/internal/core/api"
	"github.com/solatis/vesmapper/internal/core/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC mapping-rules service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50061, "gRPC server port")
	serveCmd.Flags().Int("metrics-port", 9090, "Prometheus metrics port (0 disables)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	env, err := setup(cmd)
	if err != nil {
		return err
	}

	provider, closeCatalog, err := env.openCatalog(false)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer closeCatalog()
	if provider == nil {
		env.logger.Warn("no catalog configured: Validate skips the VES schema check and Import is unavailable")
	}

	metrics := api.NewMetrics()
	service, err := api.NewService(env.engine, provider, metrics, env.logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(env.cfg.Server, service, metrics, env.logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	env.logger.Info("starting vesmapper",
		"version", Version,
		"host", env.cfg.Server.Host,
		"port", env.cfg.Server.Port)
	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		env.logger.Info("shutting down gracefully")
		return grpcServer.Shutdown(context.Background())
	}
}
