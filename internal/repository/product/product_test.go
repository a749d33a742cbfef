package product

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"catalog-migrate/internal/domain"
	"catalog-migrate/internal/migrate"
)

func ptr[T any](v T) *T { return &v }

func fixtures() []domain.Product {
	return []domain.Product{
		{ExternalID: "E1", UPCCode: ptr(int64(123456789012)), StyleNumber: "100", DisplayName: "Trail Runner", StyleName: "Runner", LaunchSeason: "SP26", BaseColor: ptr("Black"), ProductType: "Footwear", MSRPCents: 12999, WholesalePrice: 64.5},
		{ExternalID: "E2", StyleNumber: "101", DisplayName: "Men's Tee", StyleName: "Tee", ProductType: "Apparel", MSRPCents: 2500},
		{ExternalID: "E3", StyleNumber: "102", DisplayName: "Cap", StyleName: "Cap", ProductType: "Apparel"},
	}
}

func TestBuildInsertSQL(t *testing.T) {
	q, args := buildInsertSQL(pgTable("public.products"), domain.Columns, fixtures()[:2])

	if !strings.HasPrefix(q, `INSERT INTO "public"."products" ("external_id", "upc_code", `) {
		t.Fatalf("unexpected statement head: %s", q)
	}
	if !strings.HasSuffix(q, "($12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)") {
		t.Fatalf("unexpected placeholder numbering: %s", q)
	}
	if len(args) != 22 {
		t.Fatalf("expected 22 args, got %d", len(args))
	}
	if args[1] != int64(123456789012) || args[12] != nil || args[6] != "Black" || args[17] != nil {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestOpen_UnsupportedKind(t *testing.T) {
	_, err := Open(context.Background(), Config{Kind: "oracle"}, nil)
	if !errors.Is(err, ErrUnsupportedKind) {
		t.Fatalf("expected ErrUnsupportedKind, got %v", err)
	}
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(ctx, Config{Kind: KindSQLite, DSN: ":memory:"}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer repo.Close()

	n, err := repo.InsertBatch(ctx, fixtures())
	if err != nil {
		t.Fatalf("insert batch: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}

	count, err := repo.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("count: %d %v", count, err)
	}

	sample, err := repo.Sample(ctx, 2)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if len(sample) != 2 || sample[0].ExternalID != "E1" || sample[1].DisplayName != "Men's Tee" {
		t.Fatalf("unexpected sample %+v", sample)
	}
	if sample[0].UPCCode == nil || *sample[0].UPCCode != 123456789012 || sample[0].BaseColor == nil || sample[1].UPCCode != nil {
		t.Fatalf("nullable columns did not round trip: %+v", sample)
	}
	if sample[0].MSRPDollars() != 129.99 {
		t.Fatalf("unexpected msrp %d", sample[0].MSRPCents)
	}

	types, err := repo.ProductTypes(ctx)
	if err != nil {
		t.Fatalf("product types: %v", err)
	}
	if !slices.Equal(types, []string{"Apparel", "Footwear"}) {
		t.Fatalf("unexpected types %v", types)
	}
}

func TestSQLite_MSSQLPlaceholders(t *testing.T) {
	repo := newSQLRepo(nil, mssqlDialect, "dbo.products", nil)
	q, args := repo.buildInsert(fixtures()[:2])
	if !strings.HasPrefix(q, "INSERT INTO [dbo].[products] ([external_id], ") {
		t.Fatalf("unexpected statement head: %s", q)
	}
	if !strings.Contains(q, "(@p12, @p13,") || !strings.HasSuffix(q, "@p22)") || len(args) != 22 {
		t.Fatalf("unexpected mssql placeholders: %s", q)
	}
}

type fakeREST struct {
	mu       sync.Mutex
	inserted []map[string]any
	headers  http.Header
	failNext bool
}

func (f *fakeREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path != "/rest/v1/products" {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"code":"PGRST205","message":"unknown table"}`)
		return
	}
	f.headers = r.Header.Clone()

	switch r.Method {
	case http.MethodPost:
		if f.failNext {
			f.failNext = false
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"code":"23505","message":"duplicate key value"}`)
			return
		}
		var rows []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"code":"PGRST102","message":"bad json"}`)
			return
		}
		f.inserted = append(f.inserted, rows...)
		w.WriteHeader(http.StatusCreated)
	case http.MethodHead:
		w.Header().Set("Content-Range", "*/"+itoa(len(f.inserted)))
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("select") == "product_type" {
			out := make([]map[string]any, 0, len(f.inserted))
			for _, row := range f.inserted {
				out = append(out, map[string]any{"product_type": row["product_type"]})
			}
			_ = json.NewEncoder(w).Encode(out)
			return
		}
		_ = json.NewEncoder(w).Encode(f.inserted[:min(2, len(f.inserted))])
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestPostgREST_InsertAndVerify(t *testing.T) {
	fake := &fakeREST{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	repo, err := Open(ctx, Config{Kind: KindPostgREST, URL: srv.URL, ServiceKey: "service-key"}, nil)
	if err != nil {
		t.Fatalf("open postgrest: %v", err)
	}
	defer repo.Close()

	n, err := repo.InsertBatch(ctx, fixtures())
	if err != nil {
		t.Fatalf("insert batch: %v", err)
	}
	if n != 3 || len(fake.inserted) != 3 {
		t.Fatalf("expected 3 rows sent, got %d/%d", n, len(fake.inserted))
	}
	if fake.headers.Get("apikey") != "service-key" || fake.headers.Get("Authorization") != "Bearer service-key" {
		t.Fatalf("missing auth headers: %v", fake.headers)
	}
	if !strings.Contains(fake.headers.Get("Prefer"), "return=minimal") {
		t.Fatalf("expected minimal return, got %q", fake.headers.Get("Prefer"))
	}
	second := fake.inserted[1]
	if second["upc_code"] != nil || second["msrp"] != float64(2500) || second["display_name"] != "Men's Tee" {
		t.Fatalf("unexpected wire row %v", second)
	}
	if _, ok := second["id"]; ok {
		t.Fatalf("id must be assigned by the destination")
	}

	count, err := repo.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("count: %d %v", count, err)
	}

	sample, err := repo.Sample(ctx, 2)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if len(sample) != 2 || sample[0].MSRPCents != 12999 {
		t.Fatalf("unexpected sample %+v", sample)
	}

	types, err := repo.ProductTypes(ctx)
	if err != nil {
		t.Fatalf("product types: %v", err)
	}
	if !slices.Equal(types, []string{"Apparel", "Footwear"}) {
		t.Fatalf("unexpected types %v", types)
	}
}

func TestPostgREST_InsertError(t *testing.T) {
	fake := &fakeREST{failNext: true}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	repo, err := NewPostgREST(Config{URL: srv.URL + "/rest/v1/", ServiceKey: "k"}, nil)
	if err != nil {
		t.Fatalf("new postgrest: %v", err)
	}
	if _, err := repo.InsertBatch(context.Background(), fixtures()); err == nil || !strings.Contains(err.Error(), "duplicate key") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestPostgREST_RequiresCredentials(t *testing.T) {
	if _, err := NewPostgREST(Config{URL: "https://x.supabase.co"}, nil); err == nil {
		t.Fatalf("expected error without service key")
	}
}

func TestPostgres_InsertAndVerify(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, "products", nil)

	n, err := repo.InsertBatch(ctx, fixtures())
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}

	count, err := repo.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("Count: %d %v", count, err)
	}

	sample, err := repo.Sample(ctx, 5)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(sample) != 3 || sample[0].ID == "" || sample[0].CreatedAt.IsZero() {
		t.Fatalf("unexpected sample %+v", sample)
	}

	types, err := repo.ProductTypes(ctx)
	if err != nil {
		t.Fatalf("ProductTypes: %v", err)
	}
	if !slices.Equal(types, []string{"Apparel", "Footwear"}) {
		t.Fatalf("unexpected types %v", types)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE products RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
