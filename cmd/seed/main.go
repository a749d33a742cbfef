package main

import (
	"context"
	"log"
	"os"

	"catalog-migrate/internal/config"
	"catalog-migrate/internal/repository/product"
	"catalog-migrate/internal/seed"
)

func main() {
	cfg, err := config.FromEnv()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	repo, err := product.Open(ctx, product.Config{
		Kind:       cfg.DestinationKind,
		DSN:        cfg.DBConnString,
		URL:        cfg.SupabaseURL,
		ServiceKey: cfg.SupabaseServiceKey,
		Schema:     cfg.SupabaseSchema,
		Table:      cfg.ProductsTable,
	}, logger)
	if err != nil {
		logger.Fatalf("open destination: %v", err)
	}
	defer repo.Close()

	n, err := seed.Apply(ctx, repo)
	if err != nil {
		logger.Fatalf("seed apply: %v", err)
	}
	if n == 0 {
		logger.Println("products table already populated, seed skipped")
		return
	}
	logger.Printf("seed applied: %d demo products", n)
}
