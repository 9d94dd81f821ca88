package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	appconfig "github.com/ca-srg/novelsearch/internal/config"
	"github.com/ca-srg/novelsearch/internal/observability"
	"github.com/ca-srg/novelsearch/internal/opensearch"
	"github.com/ca-srg/novelsearch/internal/search"
	"github.com/ca-srg/novelsearch/internal/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the novel search HTTP API",
	Long: `Run the novel search HTTP API.

Exposes POST /search and GET /health. Requires OPENSEARCH_ENDPOINT and
OPENSEARCH_REGION; AWS credentials are resolved from the ambient environment
(profile, instance role or env vars) and used to sign engine requests.`,
	RunE: runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	// .env is optional, ignore load errors
	_ = godotenv.Load()

	cfg, err := appconfig.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obsCfg, err := observability.LoadConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to load observability configuration: %w", err)
	}

	tracerProvider, err := observability.InitTracer(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	shutdownTracing := observability.NewShutdownFunc(tracerProvider)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown failed: %v", err)
		}
	}()

	osConfig, err := opensearch.NewConfigFromTypes(cfg)
	if err != nil {
		return fmt.Errorf("failed to create OpenSearch config: %w", err)
	}
	if err := osConfig.Validate(); err != nil {
		return fmt.Errorf("OpenSearch config validation failed: %w", err)
	}

	osClient, err := opensearch.NewClient(osConfig)
	if err != nil {
		return fmt.Errorf("failed to create OpenSearch client: %w", err)
	}

	service := search.NewService(osClient, cfg.NovelIndex)
	srv := server.New(cfg, service, osClient)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Printf("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Printf("server stopped")
	return nil
}
