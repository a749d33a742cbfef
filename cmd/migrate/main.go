package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"catalog-migrate/internal/config"
	"catalog-migrate/internal/db"
	"catalog-migrate/internal/migrate"
)

func main() {
	var (
		down   bool
		status bool
		dsn    string
	)
	flag.BoolVar(&down, "down", false, "Roll back the most recent migration (with one version applied, drops the products table)")
	flag.BoolVar(&status, "status", false, "Print the applied schema version and exit")
	flag.StringVar(&dsn, "dsn", "", "Postgres DSN (overrides DB_DSN)")
	flag.Parse()

	cfg, err := config.FromEnv()
	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if dsn != "" {
		cfg.DBConnString = dsn
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	switch {
	case status:
		version, dirty, ok, err := migrate.Version(ctx, pool)
		if err != nil {
			logger.Fatalf("read version: %v", err)
		}
		if !ok {
			fmt.Println("no migrations applied")
			return
		}
		fmt.Printf("schema version %d (dirty=%v)\n", version, dirty)
	case down:
		if err := migrate.Rollback(ctx, pool); err != nil {
			logger.Fatalf("roll back migrations: %v", err)
		}
		logger.Println("migrations rolled back")
	default:
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatalf("apply migrations: %v", err)
		}
		logger.Println("migrations applied")
	}
}
