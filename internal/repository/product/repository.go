package product

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"catalog-migrate/internal/db"
	"catalog-migrate/internal/domain"
)

// ErrUnsupportedKind is returned by Open for an unknown destination kind.
var ErrUnsupportedKind = errors.New("unsupported destination kind")

// Destination kinds accepted by Open.
const (
	KindPostgREST = "postgrest"
	KindPostgres  = "postgres"
	KindSQLite    = "sqlite"
	KindMSSQL     = "mssql"
)

// Repository is the write and verification surface of a products table.
type Repository interface {
	// InsertBatch inserts every product in one request and returns the number
	// of rows written. A batch either lands whole or fails.
	InsertBatch(ctx context.Context, products []domain.Product) (int64, error)
	Count(ctx context.Context) (int64, error)
	// Sample returns up to n rows in insertion order.
	Sample(ctx context.Context, n int) ([]domain.Product, error)
	// ProductTypes returns the distinct product_type values, sorted.
	ProductTypes(ctx context.Context) ([]string, error)
	Close()
}

// Config selects and addresses a destination.
type Config struct {
	Kind string
	// DSN is used by postgres, sqlite and mssql.
	DSN string
	// URL, ServiceKey and Schema are used by postgrest.
	URL        string
	ServiceKey string
	Schema     string
	Table      string
}

// Open connects to the destination named by cfg.Kind.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (Repository, error) {
	if cfg.Table == "" {
		cfg.Table = "products"
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case KindPostgREST, "":
		return NewPostgREST(cfg, logger)
	case KindPostgres:
		pool, err := db.Connect(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return NewPostgres(pool, cfg.Table, logger), nil
	case KindSQLite:
		return OpenSQL(ctx, sqliteDialect, cfg.DSN, cfg.Table, logger)
	case KindMSSQL:
		return OpenSQL(ctx, mssqlDialect, cfg.DSN, cfg.Table, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, cfg.Kind)
	}
}
