package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Prometheus keeps counters in a private registry. Close pushes them to a
// Pushgateway when one is configured, since import runs are too short to be
// scraped.
type Prometheus struct {
	registry *prometheus.Registry
	batches  *prometheus.CounterVec
	records  *prometheus.CounterVec
	rows     prometheus.Gauge

	job     string
	pushURL string
}

func NewPrometheus(job, pushURL string) *Prometheus {
	reg := prometheus.NewRegistry()
	p := &Prometheus{
		registry: reg,
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_import_batches_total",
			Help: "Import batches submitted, by outcome.",
		}, []string{"status"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_import_records_total",
			Help: "Catalog records handled by the importer, by outcome.",
		}, []string{"status"}),
		rows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_products_rows",
			Help: "Row count of the products table at the last summary.",
		}),
		job:     job,
		pushURL: pushURL,
	}
	reg.MustRegister(p.batches, p.records, p.rows, collectors.NewGoCollector())
	return p
}

func (p *Prometheus) BatchDone(status string, records int) {
	p.batches.WithLabelValues(status).Inc()
	p.records.WithLabelValues(status).Add(float64(records))
}

func (p *Prometheus) RecordsRejected(n int) {
	if n <= 0 {
		return
	}
	p.records.WithLabelValues("rejected").Add(float64(n))
}

// SetProductRows records the destination row count seen by the status server.
func (p *Prometheus) SetProductRows(n int64) {
	p.rows.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Prometheus) Close() error {
	if p.pushURL == "" {
		return nil
	}
	return push.New(p.pushURL, p.job).Gatherer(p.registry).Push()
}
