package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"catalog-migrate/internal/config"
	"catalog-migrate/internal/httpserver"
	"catalog-migrate/internal/metrics"
	productrepo "catalog-migrate/internal/repository/product"
	productsvc "catalog-migrate/internal/service/product"
)

func main() {
	cfg, err := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	prom := metrics.NewPrometheus("catalog-api", "")
	deps := httpserver.Deps{
		EnvStatus:   cfg.EnvStatus,
		Rows:        prom,
		Metrics:     prom.Handler(),
		CORSOrigins: cfg.CORSOrigins,
	}

	// The server still starts without a destination so /env-check can report
	// what is missing.
	ctx := context.Background()
	repo, err := productrepo.Open(ctx, productrepo.Config{
		Kind:       cfg.DestinationKind,
		DSN:        cfg.DBConnString,
		URL:        cfg.SupabaseURL,
		ServiceKey: cfg.SupabaseServiceKey,
		Schema:     cfg.SupabaseSchema,
		Table:      cfg.ProductsTable,
	}, logger)
	if err != nil {
		logger.Printf("open destination: %v", err)
	} else {
		defer repo.Close()
		deps.Summary = productsvc.New(repo)
		deps.Ready = func(ctx context.Context) error {
			_, err := repo.Count(ctx)
			return err
		}
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, deps)
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
