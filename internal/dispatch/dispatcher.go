// Package dispatch drives the work queue through the recognition gateway
// under a fixed concurrency ceiling.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/sheetscan/sheetscan/internal/domain"
	"github.com/sheetscan/sheetscan/internal/observability"
	"github.com/sheetscan/sheetscan/internal/records"
)

const (
	defaultWorkers = 4
	minWorkers     = 3
	maxWorkers     = 5
)

// Gateway is the recognition call the dispatcher issues per item.
type Gateway interface {
	Recognize(ctx context.Context, image []byte, hint domain.SheetVariant) (domain.RecognitionOutcome, error)
}

// ProgressFunc receives (completed, total) after every item completion,
// success or failure. completed is monotonically increasing within a run.
type ProgressFunc func(completed, total int)

// Options configures a dispatcher.
type Options struct {
	// Workers is the concurrency ceiling, clamped to [3,5].
	Workers    int
	OnProgress ProgressFunc
}

// Report summarizes one dispatcher run.
type Report struct {
	Total  int
	Failed int
	// Flags holds per-item success flags in submission order.
	Flags       []bool
	Disposition domain.BatchDisposition
}

// Dispatcher consumes a work queue, issuing gateway calls under admission
// control and appending successes to the record store through the assembler.
type Dispatcher struct {
	gateway    Gateway
	assembler  *records.Assembler
	logger     *observability.Logger
	workers    int
	onProgress ProgressFunc
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(gateway Gateway, assembler *records.Assembler, logger *observability.Logger, opts Options) *Dispatcher {
	workers := opts.Workers
	if workers == 0 {
		workers = defaultWorkers
	}
	if workers < minWorkers {
		workers = minWorkers
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	return &Dispatcher{
		gateway:    gateway,
		assembler:  assembler,
		logger:     logger.WithComponent("dispatch"),
		workers:    workers,
		onProgress: opts.OnProgress,
	}
}

// Run processes every item exactly once. At most the configured number of
// gateway calls are in flight at any time: when the in-flight set is at
// capacity, the next item is admitted only after an earlier call completes.
// Completion order may therefore differ from submission order. Failure of
// one item never cancels or blocks the others.
//
// A run where every item failed is reported as a failed batch; a partial
// failure degrades silently to success with failures in the operator log.
func (d *Dispatcher) Run(ctx context.Context, items []domain.WorkItem) (*Report, error) {
	total := len(items)
	report := &Report{
		Total: total,
		Flags: make([]bool, total),
	}

	d.emitProgress(0, total)
	if total == 0 {
		report.Disposition = domain.BatchClean
		return report, nil
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)
	permits := make(chan struct{}, d.workers)

	for i, item := range items {
		// Admission control: block until a permit frees up.
		permits <- struct{}{}

		wg.Add(1)
		go func(idx int, item domain.WorkItem) {
			defer wg.Done()
			defer func() { <-permits }()

			ok := d.processItem(ctx, item)

			// Progress is emitted under mu so deliveries cannot reorder:
			// the reported count must never regress mid-run.
			mu.Lock()
			report.Flags[idx] = ok
			if !ok {
				report.Failed++
			}
			completed++
			d.emitProgress(completed, total)
			mu.Unlock()
		}(i, item)
	}

	wg.Wait()

	switch {
	case report.Failed == total:
		report.Disposition = domain.BatchFailed
		d.logger.Error().
			Int("failed", report.Failed).
			Int("total", total).
			Msg("Every item in the batch failed")
		return report, domain.RecognitionError(fmt.Sprintf(
			"all %d items failed: check the recognition API quota", total), nil)
	case report.Failed > 0:
		report.Disposition = domain.BatchDegraded
		d.logger.Warn().
			Int("failed", report.Failed).
			Int("total", total).
			Msg("Batch completed with failures")
	default:
		report.Disposition = domain.BatchClean
		d.logger.Info().
			Int("total", total).
			Msg("Batch completed cleanly")
	}

	return report, nil
}

// processItem runs one recognition call and, on success, assembles the
// record. Failures are logged and absorbed here: they never propagate past
// the batch boundary.
func (d *Dispatcher) processItem(ctx context.Context, item domain.WorkItem) bool {
	outcome, err := d.gateway.Recognize(ctx, item.Image, item.ForcedVariant)
	if err != nil {
		d.logger.Error().
			Err(err).
			Str("source", item.SourceRef()).
			Msg("Recognition failed")
		return false
	}

	if _, err := d.assembler.Assemble(item, outcome); err != nil {
		d.logger.Error().
			Err(err).
			Str("source", item.SourceRef()).
			Msg("Failed to store recognized record")
		return false
	}

	d.logger.Debug().
		Str("source", item.SourceRef()).
		Str("variant", string(outcome.Variant)).
		Float64("confidence", outcome.Confidence).
		Msg("Recognized sheet")
	return true
}

func (d *Dispatcher) emitProgress(completed, total int) {
	if d.onProgress != nil {
		d.onProgress(completed, total)
	}
}
