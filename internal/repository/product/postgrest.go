package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/supabase-community/postgrest-go"

	"catalog-migrate/internal/domain"
)

// typesPageSize stays under the hosted service's default max-rows limit.
const typesPageSize = 1000

type postgrestRepo struct {
	client *postgrest.Client
	table  string
	logger *log.Logger
}

// NewPostgREST builds a client for the hosted REST API at cfg.URL. The service
// key is sent both as the apikey header and as the bearer token.
func NewPostgREST(cfg Config, logger *log.Logger) (Repository, error) {
	if cfg.URL == "" || cfg.ServiceKey == "" {
		return nil, errors.New("postgrest destination needs SUPABASE_URL and SUPABASE_SERVICE_KEY")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cfg.Table == "" {
		cfg.Table = "products"
	}

	client := postgrest.NewClient(restURL(cfg.URL), cfg.Schema, map[string]string{"apikey": cfg.ServiceKey})
	if client.ClientError != nil {
		return nil, fmt.Errorf("postgrest client: %w", client.ClientError)
	}
	client.SetAuthToken(cfg.ServiceKey)
	return &postgrestRepo{client: client, table: cfg.Table, logger: logger}, nil
}

// restURL appends the REST path unless the caller already pointed at it.
func restURL(base string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/rest/v1") {
		return base
	}
	return base + "/rest/v1"
}

func (r *postgrestRepo) InsertBatch(ctx context.Context, products []domain.Product) (int64, error) {
	if len(products) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	rows := make([]map[string]any, len(products))
	for i, p := range products {
		rows[i] = insertRow(p)
	}
	if _, _, err := r.client.From(r.table).Insert(rows, false, "", "minimal", "").Execute(); err != nil {
		r.logger.Printf("product repo: insert batch size=%d first=%s error=%v", len(products), products[0].ExternalID, err)
		return 0, err
	}
	r.logger.Printf("product repo: inserted batch size=%d", len(products))
	return int64(len(products)), nil
}

func insertRow(p domain.Product) map[string]any {
	vals := p.Values()
	row := make(map[string]any, len(domain.Columns))
	for i, c := range domain.Columns {
		row[c] = vals[i]
	}
	return row
}

func (r *postgrestRepo) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	_, n, err := r.client.From(r.table).Select("id", "exact", true).Execute()
	if err != nil {
		r.logger.Printf("product repo: count error=%v", err)
		return 0, err
	}
	return n, nil
}

func (r *postgrestRepo) Sample(ctx context.Context, n int) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.Product
	_, err := r.client.From(r.table).
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Limit(n, "").
		ExecuteTo(&out)
	if err != nil {
		r.logger.Printf("product repo: sample n=%d error=%v", n, err)
		return nil, err
	}
	return out, nil
}

// ProductTypes pages through the product_type column; the REST API has no
// DISTINCT.
func (r *postgrestRepo) ProductTypes(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	for from := 0; ; from += typesPageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, _, err := r.client.From(r.table).
			Select("product_type", "", false).
			Order("id", &postgrest.OrderOpts{Ascending: true}).
			Range(from, from+typesPageSize-1, "").
			Execute()
		if err != nil {
			r.logger.Printf("product repo: product types offset=%d error=%v", from, err)
			return nil, err
		}
		var page []struct {
			ProductType string `json:"product_type"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode product types: %w", err)
		}
		for _, p := range page {
			seen[p.ProductType] = struct{}{}
		}
		if len(page) < typesPageSize {
			break
		}
	}

	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types, nil
}

func (r *postgrestRepo) Close() {}
