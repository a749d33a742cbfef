package metrics

import (
	"context"
	"fmt"
	"strings"
)

// Batch outcomes passed to Recorder.BatchDone.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Recorder receives import events. Implementations must tolerate calls after
// a failed flush.
type Recorder interface {
	BatchDone(status string, records int)
	RecordsRejected(n int)
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend        string // none, prometheus or datadog
	Job            string
	PushgatewayURL string
	Tags           []string
}

// Open builds the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Recorder, error) {
	if opts.Job == "" {
		opts.Job = "catalog-import"
	}
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", "none":
		return Nop{}, nil
	case "prometheus":
		return NewPrometheus(opts.Job, opts.PushgatewayURL), nil
	case "datadog":
		return NewDatadog(ctx, DatadogOptions{JobName: opts.Job, Tags: opts.Tags})
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", opts.Backend)
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) BatchDone(string, int) {}
func (Nop) RecordsRejected(int)   {}
func (Nop) Close() error          { return nil }
