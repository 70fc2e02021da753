package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pevans/wikifeed/api"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.config.Server.Addr
			}

			orchestrator, err := a.newOrchestrator()
			if err != nil {
				return err
			}

			opts := []api.Option{
				api.WithLogger(a.logger.Named("api")),
				api.WithConfig(a.config),
			}

			store, err := a.openHistory()
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
				opts = append(opts, api.WithHistory(store))
			}

			gin.SetMode(gin.ReleaseMode)
			server := &http.Server{
				Addr:              addr,
				Handler:           api.NewServer(orchestrator, opts...).SetupRouter(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			return runServer(cmd.Context(), server, a.logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, server *http.Server, logger *zap.Logger) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", server.Addr))
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown timeout exceeded, forcing exit", zap.Error(err))
		return err
	}

	logger.Info("Server stopped")
	return nil
}
