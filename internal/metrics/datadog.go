package metrics

import (
	"context"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
)

// DatadogOptions configures the Datadog backend. Credentials come from the
// client's usual DD_API_KEY / DD_SITE environment variables.
type DatadogOptions struct {
	JobName    string
	Tags       []string
	FlushEvery time.Duration

	// Test seams; production leaves them nil.
	now       func() time.Time
	submitter metricsSubmitter
}

type metricsSubmitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// Datadog buffers counts in memory and submits them on a ticker and on Close.
type Datadog struct {
	api      metricsSubmitter
	ctx      context.Context
	baseTags []string
	now      func() time.Time

	flushEvery time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}
	closeOnce  sync.Once

	mu      sync.Mutex
	batches map[string]float64
	records map[string]float64
}

func NewDatadog(parent context.Context, opts DatadogOptions) (*Datadog, error) {
	job := opts.JobName
	if job == "" {
		job = "catalog-import"
	}
	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = time.Minute
	}
	now := opts.now
	if now == nil {
		now = time.Now
	}

	submitter := opts.submitter
	if submitter == nil {
		submitter = datadogV2.NewMetricsApi(dd.NewAPIClient(dd.NewConfiguration()))
	}

	tags := make([]string, 0, 2+len(opts.Tags))
	tags = append(tags, envTag(), "job:"+job)
	tags = append(tags, opts.Tags...)

	d := &Datadog{
		api:        submitter,
		ctx:        dd.NewDefaultContext(parent),
		baseTags:   tags,
		now:        now,
		flushEvery: flushEvery,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		batches:    make(map[string]float64),
		records:    make(map[string]float64),
	}
	go d.loop()
	return d, nil
}

func envTag() string {
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		return "env:" + v
	}
	if v := strings.TrimSpace(os.Getenv("DD_ENV")); v != "" {
		return "env:" + v
	}
	return "env:unknown"
}

func (d *Datadog) loop() {
	defer close(d.doneCh)
	t := time.NewTicker(d.flushEvery)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			_ = d.Flush()
		case <-d.stopCh:
			return
		}
	}
}

func (d *Datadog) BatchDone(status string, records int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.batches[status]++
	if records > 0 {
		d.records[status] += float64(records)
	}
}

func (d *Datadog) RecordsRejected(n int) {
	if n <= 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records["rejected"] += float64(n)
}

// Flush submits and resets the buffered counts. Counts are dropped when the
// submission fails.
func (d *Datadog) Flush() error {
	d.mu.Lock()
	batches, records := d.batches, d.records
	d.batches = make(map[string]float64)
	d.records = make(map[string]float64)
	d.mu.Unlock()

	series := d.buildSeries(batches, records, d.now().Unix())
	if len(series) == 0 {
		return nil
	}
	_, _, err := d.api.SubmitMetrics(d.ctx, datadogV2.MetricPayload{Series: series}, *datadogV2.NewSubmitMetricsOptionalParameters())
	return err
}

func (d *Datadog) buildSeries(batches, records map[string]float64, nowUnix int64) []datadogV2.MetricSeries {
	var series []datadogV2.MetricSeries
	add := func(metric string, counts map[string]float64) {
		statuses := make([]string, 0, len(counts))
		for s := range counts {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)
		for _, s := range statuses {
			series = append(series, datadogV2.MetricSeries{
				Metric: metric,
				Type:   datadogV2.METRICINTAKETYPE_COUNT.Ptr(),
				Points: []datadogV2.MetricPoint{
					{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(counts[s])},
				},
				Tags: append(append([]string(nil), d.baseTags...), "status:"+s),
			})
		}
	}
	add("catalog.import.batches", batches)
	add("catalog.import.records", records)
	return series
}

// Close stops the flush loop and submits whatever is still buffered.
func (d *Datadog) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.stopCh)
		<-d.doneCh
		err = d.Flush()
	})
	return err
}
