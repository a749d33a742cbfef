package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"testing"

	"catalog-migrate/internal/domain"
	productsvc "catalog-migrate/internal/service/product"
)

type stubWriter struct {
	calls  int
	failOn map[int]error
	sizes  []int
	cancel context.CancelFunc
}

func (s *stubWriter) InsertBatch(_ context.Context, products []domain.Product) (int64, error) {
	s.calls++
	s.sizes = append(s.sizes, len(products))
	if s.cancel != nil && s.calls == 1 {
		s.cancel()
	}
	if err := s.failOn[s.calls]; err != nil {
		return 0, err
	}
	return int64(len(products)), nil
}

type stubRecorder struct {
	batches map[string]int
	records map[string]int
}

func newStubRecorder() *stubRecorder {
	return &stubRecorder{batches: map[string]int{}, records: map[string]int{}}
}

func (s *stubRecorder) BatchDone(status string, n int) {
	s.batches[status]++
	s.records[status] += n
}
func (s *stubRecorder) RecordsRejected(n int) { s.records["rejected"] += n }
func (s *stubRecorder) Close() error          { return nil }

func products(n int) []domain.Product {
	out := make([]domain.Product, n)
	for i := range out {
		out[i] = domain.Product{ExternalID: fmt.Sprintf("E%d", i+1)}
	}
	return out
}

func TestRun_SecondBatchFails(t *testing.T) {
	writer := &stubWriter{failOn: map[int]error{2: errors.New("(23505) duplicate key")}}
	rec := newStubRecorder()
	imp := New(writer, Options{Metrics: rec})

	rep, err := imp.Run(context.Background(), products(250))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if writer.calls != 3 {
		t.Fatalf("expected all 3 batches attempted, got %d", writer.calls)
	}
	if len(rep.Batches) != 3 {
		t.Fatalf("expected 3 batch results, got %d", len(rep.Batches))
	}
	if !rep.Batches[0].OK() || rep.Batches[1].OK() || !rep.Batches[2].OK() {
		t.Fatalf("expected batches 1 and 3 ok, 2 failed: %+v", rep.Batches)
	}
	if rep.Batches[2].First != 201 || rep.Batches[2].Last != 250 || rep.Batches[2].Size != 50 {
		t.Fatalf("unexpected third batch %+v", rep.Batches[2])
	}
	if rep.Imported != 150 || rep.Expected != 250 || rep.Success {
		t.Fatalf("unexpected totals imported=%d expected=%d success=%v", rep.Imported, rep.Expected, rep.Success)
	}
	if len(rep.Failed()) != 1 || rep.Failed()[0].Number != 2 {
		t.Fatalf("unexpected failed list %+v", rep.Failed())
	}
	if rec.batches["ok"] != 2 || rec.batches["failed"] != 1 || rec.records["ok"] != 150 {
		t.Fatalf("unexpected metrics %+v %+v", rec.batches, rec.records)
	}
	if rep.RunID == "" {
		t.Fatalf("expected run id")
	}
}

func TestRun_AllSucceed(t *testing.T) {
	writer := &stubWriter{}
	rep, err := New(writer, Options{BatchSize: 50}).Run(context.Background(), products(120))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !rep.Success || rep.Imported != 120 {
		t.Fatalf("expected success, got %+v", rep)
	}
	if fmt.Sprint(writer.sizes) != "[50 50 20]" {
		t.Fatalf("unexpected batch sizes %v", writer.sizes)
	}
}

type shortWriter struct{}

func (shortWriter) InsertBatch(_ context.Context, p []domain.Product) (int64, error) {
	return int64(len(p) - 1), nil
}

func TestRun_ShortInsertCountsAsFailure(t *testing.T) {
	rep, err := New(shortWriter{}, Options{}).Run(context.Background(), products(10))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Success || rep.Batches[0].OK() || rep.Imported != 0 {
		t.Fatalf("expected partial insert to fail the batch, got %+v", rep)
	}
}

func TestRun_DryRun(t *testing.T) {
	writer := &stubWriter{}
	rep, err := New(writer, Options{DryRun: true}).Run(context.Background(), products(150))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if writer.calls != 0 {
		t.Fatalf("dry run must not write, got %d calls", writer.calls)
	}
	if !rep.Success || len(rep.Batches) != 2 || rep.Imported != 0 {
		t.Fatalf("unexpected dry run report %+v", rep)
	}
}

func TestRun_StopsBetweenBatchesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	writer := &stubWriter{cancel: cancel}

	rep, err := New(writer, Options{}).Run(ctx, products(300))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if writer.calls != 1 || len(rep.Batches) != 1 || rep.Success {
		t.Fatalf("expected run to stop after first batch, got calls=%d report=%+v", writer.calls, rep)
	}
}

func TestRun_Empty(t *testing.T) {
	rep, err := New(&stubWriter{}, Options{}).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !rep.Success || len(rep.Batches) != 0 {
		t.Fatalf("unexpected empty report %+v", rep)
	}
}

type stubSummarizer struct {
	sum *domain.CatalogSummary
	err error
}

func (s stubSummarizer) Summary(context.Context, int) (*domain.CatalogSummary, error) {
	return s.sum, s.err
}

func TestVerify(t *testing.T) {
	var out, logs bytes.Buffer
	s := stubSummarizer{
		sum: &domain.CatalogSummary{
			Total:        3,
			CountKnown:   true,
			Sample:       []domain.Product{{DisplayName: "Trail Runner", MSRPCents: 12999}, {DisplayName: "Cap", MSRPCents: 0}},
			ProductTypes: []string{"Apparel", "Footwear"},
		},
	}
	sum := Verify(context.Background(), s, 5, &out, log.New(&logs, "", 0))
	if sum == nil || sum.Total != 3 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	want := "Total products in destination: 3\nSample products:\n  - Trail Runner: $129.99\n  - Cap: $0.00\nProduct types: Apparel, Footwear\n"
	if out.String() != want {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	if logs.Len() != 0 {
		t.Fatalf("unexpected logs %q", logs.String())
	}
}

func TestVerify_ErrorsAreNotFatal(t *testing.T) {
	var out, logs bytes.Buffer
	s := stubSummarizer{sum: &domain.CatalogSummary{Total: 3, CountKnown: true}, err: errors.New("product types: timeout")}
	if sum := Verify(context.Background(), s, 5, &out, log.New(&logs, "", 0)); sum == nil {
		t.Fatalf("expected partial summary")
	}
	if !strings.Contains(logs.String(), "verification: product types: timeout") {
		t.Fatalf("expected logged error, got %q", logs.String())
	}
	if !strings.HasPrefix(out.String(), "Total products in destination: 3") {
		t.Fatalf("expected partial output, got %q", out.String())
	}

	out.Reset()
	if sum := Verify(context.Background(), stubSummarizer{err: errors.New("down")}, 5, &out, nil); sum != nil || out.Len() != 0 {
		t.Fatalf("expected nothing printed without a summary")
	}
}

type brokenReader struct {
	typesErr error
}

func (brokenReader) Count(context.Context) (int64, error) { return 0, errors.New("count timeout") }

func (brokenReader) Sample(context.Context, int) ([]domain.Product, error) {
	return nil, errors.New("sample timeout")
}

func (r brokenReader) ProductTypes(context.Context) ([]string, error) {
	if r.typesErr != nil {
		return nil, r.typesErr
	}
	return []string{"Apparel"}, nil
}

func TestVerify_UnreadableDestination(t *testing.T) {
	var out, logs bytes.Buffer
	svc := productsvc.New(brokenReader{typesErr: errors.New("types timeout")})
	if sum := Verify(context.Background(), svc, 5, &out, log.New(&logs, "", 0)); sum != nil {
		t.Fatalf("expected no summary, got %+v", sum)
	}
	if out.Len() != 0 {
		t.Fatalf("expected nothing printed, got %q", out.String())
	}
	if !strings.Contains(logs.String(), "count timeout") {
		t.Fatalf("expected count error logged, got %q", logs.String())
	}
}

func TestVerify_CountFailureIsNotReportedAsZero(t *testing.T) {
	var out bytes.Buffer
	Verify(context.Background(), productsvc.New(brokenReader{}), 5, &out, nil)
	s := out.String()
	if strings.Contains(s, "destination: 0") || !strings.HasPrefix(s, "Total products in destination: unavailable\n") {
		t.Fatalf("unexpected output %q", s)
	}
	if !strings.Contains(s, "Product types: Apparel") {
		t.Fatalf("expected product types still printed, got %q", s)
	}
}

func TestPrintReport(t *testing.T) {
	rep := &Report{
		RunID:    "run-1",
		Expected: 150,
		Imported: 100,
		Batches: []BatchResult{
			{Number: 1, First: 1, Last: 100, Size: 100, Inserted: 100},
			{Number: 2, First: 101, Last: 150, Size: 50, Err: errors.New("boom")},
		},
	}
	var out bytes.Buffer
	PrintReport(&out, rep)
	s := out.String()
	for _, want := range []string{
		"Batch 1 (products 1-100, 100 records): ok\n",
		"Batch 2 (products 101-150, 50 records): FAILED: boom\n",
		"Imported 100 of 150 products (run run-1,",
		"Import incomplete: 1 batches failed\n",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %q in:\n%s", want, s)
		}
	}
}
