// Package scheduler sweeps documents awaiting processing and drives them
// through the extraction pipeline on a fixed interval. Pickup is guarded by
// the pipeline's conditional status claim, so running multiple instances
// never processes a document twice.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/JaimeStill/waybill/internal/documents"
	"github.com/JaimeStill/waybill/pkg/lifecycle"
)

// Source is the slice of the document system the scheduler consumes.
type Source interface {
	Queue(ctx context.Context, limit int) ([]documents.Document, error)
	Process(ctx context.Context, id int64) error
}

// Scheduler runs the background processing loop.
type Scheduler struct {
	source   Source
	logger   *slog.Logger
	interval time.Duration
	batch    int
	enabled  bool
}

func New(cfg *Config, source Source, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		source:   source,
		logger:   logger.With("system", "scheduler"),
		interval: cfg.IntervalDuration(),
		batch:    cfg.BatchSize,
		enabled:  cfg.Enabled,
	}
}

// Start registers the processing loop with the lifecycle coordinator. The
// loop stops when the coordinator's context is cancelled.
func (s *Scheduler) Start(lc *lifecycle.Coordinator) {
	if !s.enabled {
		s.logger.Info("background processing disabled")
		return
	}

	s.logger.Info("starting background processing",
		"interval", s.interval,
		"batch_size", s.batch)

	lc.OnShutdown(func() {
		s.run(lc.Context())
	})
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("background processing stopped")
			return
		case <-ticker.C:
			s.Cycle(ctx)
		}
	}
}

// Cycle performs one sweep: fetch the oldest pending documents and process
// each in turn. A failure on one document is logged and does not stop the
// rest of the batch.
func (s *Scheduler) Cycle(ctx context.Context) {
	docs, err := s.source.Queue(ctx, s.batch)
	if err != nil {
		s.logger.Error("queue fetch failed", "error", err)
		return
	}
	if len(docs) == 0 {
		return
	}

	s.logger.Info("processing batch", "count", len(docs))

	for _, doc := range docs {
		if ctx.Err() != nil {
			return
		}
		if err := s.source.Process(ctx, doc.ID); err != nil {
			s.logger.Error("document processing failed",
				"id", doc.ID,
				"filename", doc.Filename,
				"error", err)
		}
	}
}
