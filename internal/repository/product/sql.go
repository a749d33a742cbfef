package product

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"catalog-migrate/internal/domain"
)

// dialect captures what differs between the database/sql destinations.
type dialect struct {
	driver      string
	placeholder func(n int) string
	ident       func(name string) string
	createTable string // %s is the quoted table name
	sample      string // %s is the quoted table name; the limit is placeholder 1
}

var sqliteDialect = dialect{
	driver:      "sqlite",
	placeholder: func(int) string { return "?" },
	ident:       func(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` },
	createTable: `
CREATE TABLE IF NOT EXISTS %s (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  external_id TEXT NOT NULL,
  upc_code INTEGER,
  style_number TEXT NOT NULL,
  display_name TEXT NOT NULL,
  style_name TEXT NOT NULL,
  launch_season TEXT NOT NULL DEFAULT '',
  base_color TEXT,
  marketing_color TEXT,
  product_type TEXT NOT NULL DEFAULT '',
  msrp INTEGER NOT NULL DEFAULT 0,
  wholesale_price REAL NOT NULL DEFAULT 0
)`,
	sample: `
SELECT CAST(id AS TEXT), external_id, upc_code, style_number, display_name, style_name,
       launch_season, base_color, marketing_color, product_type, msrp, wholesale_price
FROM %s
ORDER BY id
LIMIT ?`,
}

var mssqlDialect = dialect{
	driver:      "sqlserver",
	placeholder: func(n int) string { return "@p" + strconv.Itoa(n) },
	ident:       func(s string) string { return "[" + strings.ReplaceAll(s, "]", "]]") + "]" },
	createTable: `
IF OBJECT_ID(N'%[1]s', N'U') IS NULL
CREATE TABLE %[1]s (
  id UNIQUEIDENTIFIER NOT NULL DEFAULT NEWSEQUENTIALID() PRIMARY KEY,
  external_id NVARCHAR(255) NOT NULL,
  upc_code BIGINT NULL,
  style_number NVARCHAR(255) NOT NULL,
  display_name NVARCHAR(500) NOT NULL,
  style_name NVARCHAR(255) NOT NULL,
  launch_season NVARCHAR(64) NOT NULL DEFAULT '',
  base_color NVARCHAR(255) NULL,
  marketing_color NVARCHAR(255) NULL,
  product_type NVARCHAR(255) NOT NULL DEFAULT '',
  msrp BIGINT NOT NULL DEFAULT 0,
  wholesale_price DECIMAL(12,2) NOT NULL DEFAULT 0,
  created_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()
)`,
	sample: `
SELECT TOP (@p1) CONVERT(NVARCHAR(36), id), external_id, upc_code, style_number, display_name, style_name,
       launch_season, base_color, marketing_color, product_type, msrp, CAST(wholesale_price AS FLOAT)
FROM %s
ORDER BY created_at, id`,
}

type sqlRepo struct {
	db      *sql.DB
	dialect dialect
	table   string
	logger  *log.Logger
}

// OpenSQL opens a database/sql destination and creates the products table when
// it is missing.
func OpenSQL(ctx context.Context, d dialect, dsn, table string, logger *log.Logger) (Repository, error) {
	conn, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}
	if d.driver == sqliteDialect.driver {
		// One connection keeps ":memory:" databases alive across calls.
		conn.SetMaxOpenConns(1)
	}

	repo := newSQLRepo(conn, d, table, logger)
	if _, err := conn.ExecContext(ctx, fmt.Sprintf(d.createTable, repo.table)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}
	return repo, nil
}

func newSQLRepo(conn *sql.DB, d dialect, table string, logger *log.Logger) *sqlRepo {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = d.ident(p)
	}
	return &sqlRepo{db: conn, dialect: d, table: strings.Join(parts, "."), logger: logger}
}

func (r *sqlRepo) InsertBatch(ctx context.Context, products []domain.Product) (int64, error) {
	if len(products) == 0 {
		return 0, nil
	}
	q, args := r.buildInsert(products)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		r.logger.Printf("product repo: insert batch driver=%s size=%d first=%s error=%v", r.dialect.driver, len(products), products[0].ExternalID, err)
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		n = int64(len(products))
	}
	r.logger.Printf("product repo: inserted batch driver=%s size=%d rows=%d", r.dialect.driver, len(products), n)
	return n, nil
}

func (r *sqlRepo) buildInsert(products []domain.Product) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(r.table)
	b.WriteString(" (")
	for i, c := range domain.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.dialect.ident(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(products)*len(domain.Columns))
	for i, p := range products {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j, v := range p.Values() {
			if j > 0 {
				b.WriteString(", ")
			}
			args = append(args, v)
			b.WriteString(r.dialect.placeholder(len(args)))
		}
		b.WriteString(")")
	}
	return b.String(), args
}

func (r *sqlRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+r.table).Scan(&n); err != nil {
		r.logger.Printf("product repo: count driver=%s error=%v", r.dialect.driver, err)
		return 0, err
	}
	return n, nil
}

func (r *sqlRepo) Sample(ctx context.Context, n int) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(r.dialect.sample, r.table), n)
	if err != nil {
		r.logger.Printf("product repo: sample driver=%s n=%d error=%v", r.dialect.driver, n, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var (
			p               domain.Product
			upc             sql.NullInt64
			base, marketing sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.ExternalID, &upc, &p.StyleNumber, &p.DisplayName, &p.StyleName,
			&p.LaunchSeason, &base, &marketing, &p.ProductType, &p.MSRPCents, &p.WholesalePrice); err != nil {
			return nil, err
		}
		if upc.Valid {
			p.UPCCode = &upc.Int64
		}
		if base.Valid {
			p.BaseColor = &base.String
		}
		if marketing.Valid {
			p.MarketingColor = &marketing.String
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *sqlRepo) ProductTypes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT product_type FROM "+r.table+" ORDER BY product_type")
	if err != nil {
		r.logger.Printf("product repo: product types driver=%s error=%v", r.dialect.driver, err)
		return nil, err
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (r *sqlRepo) Close() {
	_ = r.db.Close()
}
