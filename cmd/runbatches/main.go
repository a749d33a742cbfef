package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"catalog-migrate/internal/config"
	"catalog-migrate/internal/db"
	"catalog-migrate/internal/runner"
)

func main() {
	var (
		dir     string
		execute bool
		from    int
		dsn     string
	)
	flag.StringVar(&dir, "dir", ".", "Directory holding the import_batch_NN.sql files")
	flag.BoolVar(&execute, "exec", false, "Apply the files against DB_DSN instead of printing instructions")
	flag.IntVar(&from, "from", 1, "First batch number to include")
	flag.StringVar(&dsn, "dsn", "", "Postgres DSN (overrides DB_DSN)")
	flag.Parse()

	logger := log.New(os.Stdout, "[runbatches] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	files, err := runner.Discover(dir)
	if err != nil {
		logger.Fatalf("find batch files: %v", err)
	}
	files = runner.From(files, from)

	if !execute {
		runner.PrintInstructions(os.Stdout, files)
		return
	}

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if dsn != "" {
		cfg.DBConnString = dsn
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	results, err := runner.Apply(ctx, pool, files, logger)
	var (
		applied int
		rows    int64
	)
	for _, r := range results {
		if r.Err == nil {
			applied++
			rows += r.Inserted
		}
	}
	if err != nil {
		pool.Close()
		logger.Fatalf("%v (applied %d of %d files, %d rows; rerun with -from to resume)", err, applied, len(files), rows)
	}
	logger.Printf("applied %d files, %d rows", applied, rows)
}
