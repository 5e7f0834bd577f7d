package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pradeepkk321/fhir-mapper/internal/config"
	"github.com/pradeepkk321/fhir-mapper/internal/expr"
	"github.com/pradeepkk321/fhir-mapper/internal/fhirbridge"
	"github.com/pradeepkk321/fhir-mapper/internal/fhirmapper"
	"github.com/pradeepkk321/fhir-mapper/internal/httpapi"
	"github.com/pradeepkk321/fhir-mapper/internal/mapping"
	"github.com/pradeepkk321/fhir-mapper/internal/platform/logging"
	"github.com/pradeepkk321/fhir-mapper/internal/transform"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP facade",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel, cfg.IsDev())

	build := func(dir string) (*mapping.Registry, error) {
		reg, result, err := buildRegistry(dir, cfg)
		for _, w := range result.Warnings {
			logger.Warn().Msg(w)
		}
		return reg, err
	}

	store, err := mapping.NewStore(cfg.MappingBaseDir, build, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load mapping registry")
	}

	if cfg.HotReloadEnabled {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := store.Watch(ctx, cfg.HotReloadDebounce); err != nil {
			logger.Warn().Err(err).Msg("hot reload watcher not started")
		}
	}

	mapper := fhirmapper.NewMapper(store, transform.NewInterpreter(expr.NewEvaluator()), fhirbridge.NewDefaultBridge(), fhirmapper.NewJSONObjectMarshaller())
	e := httpapi.NewServer(mapper, store, logger)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	if err := store.Close(); err != nil {
		logger.Warn().Err(err).Msg("store close failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
