// Package scan wires intake, dispatch and record assembly into the
// batch-processing service.
package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/sheetscan/sheetscan/internal/dispatch"
	"github.com/sheetscan/sheetscan/internal/domain"
	"github.com/sheetscan/sheetscan/internal/intake"
	"github.com/sheetscan/sheetscan/internal/observability"
)

// BatchRequest describes one processing batch.
type BatchRequest struct {
	Mode domain.Mode
	// Variant is the forced variant for ModeForced batches.
	Variant domain.SheetVariant
	// Files are the inputs for auto and forced batches, in upload order.
	Files []intake.InputFile
	// Buckets are the three per-variant upload queues for ModePaired
	// batches, in canonical variant order.
	Buckets [3][]intake.InputFile
}

// BatchResult reports one completed batch.
type BatchResult struct {
	Report  *dispatch.Report
	Elapsed time.Duration
}

// Service owns one batch run end to end: building the work queue, driving it
// through the dispatcher and leaving the assembled records in the store.
type Service struct {
	builder    *intake.Builder
	dispatcher *dispatch.Dispatcher
	logger     *observability.Logger
}

// NewService creates the batch service.
func NewService(builder *intake.Builder, dispatcher *dispatch.Dispatcher, logger *observability.Logger) *Service {
	return &Service{
		builder:    builder,
		dispatcher: dispatcher,
		logger:     logger.WithComponent("scan"),
	}
}

// Process runs one batch to completion. Preparation failures abort before
// any recognition call is dispatched; once dispatch begins the batch runs to
// the end, with per-item failures absorbed by the dispatcher.
func (s *Service) Process(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	start := time.Now()

	items, err := s.buildItems(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("mode", string(req.Mode)).
		Int("items", len(items)).
		Msg("Starting batch")

	report, err := s.dispatcher.Run(ctx, items)
	result := &BatchResult{
		Report:  report,
		Elapsed: time.Since(start),
	}
	if err != nil {
		return result, err
	}

	s.logger.Info().
		Str("disposition", string(report.Disposition)).
		Int("failed", report.Failed).
		Int("total", report.Total).
		Dur("elapsed", result.Elapsed).
		Msg("Batch finished")

	return result, nil
}

func (s *Service) buildItems(ctx context.Context, req BatchRequest) ([]domain.WorkItem, error) {
	switch req.Mode {
	case domain.ModeAuto:
		return s.builder.Build(ctx, req.Files, "")
	case domain.ModeForced:
		if _, err := domain.ParseVariant(string(req.Variant)); err != nil {
			return nil, err
		}
		return s.builder.Build(ctx, req.Files, req.Variant)
	case domain.ModePaired:
		return s.builder.BuildPaired(ctx, req.Buckets)
	default:
		return nil, domain.ValidationError(fmt.Sprintf("unknown batch mode %q", req.Mode), nil)
	}
}
