package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	app "github.com/acmecorp/accesshub/internal/app"
	"github.com/acmecorp/accesshub/internal/app/domain/catalog"
	"github.com/acmecorp/accesshub/internal/app/httpapi"
	requestsvc "github.com/acmecorp/accesshub/internal/app/services/requests"
	"github.com/acmecorp/accesshub/internal/config"
	"github.com/acmecorp/accesshub/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to accesshub YAML config")
	flag.Parse()

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.LoadFromPath(*configPath)
		if err != nil {
			logger.NewDefault("accesshub").Fatalf("load config: %v", err)
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
	}

	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	}).Named("accesshub")

	// The catalog loads exactly once; a malformed fixture is fatal.
	var apps []catalog.App
	if cfg.CatalogPath != "" {
		loaded, err := config.LoadCatalogFromPath(cfg.CatalogPath)
		if err != nil {
			log.Fatalf("load catalog: %v", err)
		}
		apps = loaded
	} else {
		apps = config.DefaultCatalog()
	}

	probs := requestsvc.Probabilities{
		Approve:   cfg.Progression.ApproveProbability,
		Provision: cfg.Progression.ProvisionProbability,
		Complete:  cfg.Progression.CompleteProbability,
	}
	application, err := app.New(app.Stores{}, app.Options{
		CatalogApps:         apps,
		ProgressionSchedule: cfg.Progression.Schedule,
		Probabilities:       &probs,
	}, log)
	if err != nil {
		log.Fatalf("build application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		log.Fatalf("start application: %v", err)
	}

	handler, err := httpapi.NewHandler(application, cfg.Server.AuditLogPath)
	if err != nil {
		log.Fatalf("build http handler: %v", err)
	}
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("http server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http server shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("application shutdown")
	}
	log.Info("accesshub stopped")
}
