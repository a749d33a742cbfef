package product

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"catalog-migrate/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	table  string
	logger *log.Logger
}

// NewPostgres returns a Repository over an open pool. The pool is closed by
// Close.
func NewPostgres(pool *pgxpool.Pool, table string, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, table: pgTable(table), logger: logger}
}

func (r *postgresRepo) InsertBatch(ctx context.Context, products []domain.Product) (int64, error) {
	if len(products) == 0 {
		return 0, nil
	}
	q, args := buildInsertSQL(r.table, domain.Columns, products)
	tag, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		r.logger.Printf("product repo: insert batch size=%d first=%s error=%v", len(products), products[0].ExternalID, err)
		return 0, err
	}
	r.logger.Printf("product repo: inserted batch size=%d rows=%d", len(products), tag.RowsAffected())
	return tag.RowsAffected(), nil
}

func (r *postgresRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+r.table).Scan(&n); err != nil {
		r.logger.Printf("product repo: count error=%v", err)
		return 0, err
	}
	return n, nil
}

func (r *postgresRepo) Sample(ctx context.Context, n int) ([]domain.Product, error) {
	q := `
SELECT id::text, external_id, upc_code, style_number, display_name, style_name,
       launch_season, base_color, marketing_color, product_type, msrp, wholesale_price::float8, created_at
FROM ` + r.table + `
ORDER BY created_at, id
LIMIT $1
`
	rows, err := r.pool.Query(ctx, q, n)
	if err != nil {
		r.logger.Printf("product repo: sample n=%d error=%v", n, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.ExternalID, &p.UPCCode, &p.StyleNumber, &p.DisplayName, &p.StyleName,
			&p.LaunchSeason, &p.BaseColor, &p.MarketingColor, &p.ProductType, &p.MSRPCents, &p.WholesalePrice, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: sample rows error=%v", err)
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) ProductTypes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT product_type FROM `+r.table+` ORDER BY product_type`)
	if err != nil {
		r.logger.Printf("product repo: product types error=%v", err)
		return nil, err
	}
	defer rows.Close()

	types, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return types, nil
}

func (r *postgresRepo) Close() {
	r.pool.Close()
}

// buildInsertSQL constructs one multi-row INSERT with numbered placeholders.
// It is pure so placeholder numbering can be tested without a database.
func buildInsertSQL(table string, columns []string, products []domain.Product) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgx.Identifier{c}.Sanitize())
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(products)*len(columns))
	p := 1
	for i, prod := range products {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j, v := range prod.Values() {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", p)
			args = append(args, v)
			p++
		}
		b.WriteString(")")
	}
	return b.String(), args
}

// pgTable quotes a possibly schema-qualified table name.
func pgTable(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}
