package scheduler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/JaimeStill/waybill/internal/documents"
	"github.com/JaimeStill/waybill/internal/scheduler"
)

type fakeSource struct {
	mu        sync.Mutex
	queue     []documents.Document
	queueErr  error
	processed []int64
	failIDs   map[int64]error
	lastLimit int
}

func (f *fakeSource) Queue(_ context.Context, limit int) ([]documents.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastLimit = limit
	if f.queueErr != nil {
		return nil, f.queueErr
	}
	if len(f.queue) > limit {
		return f.queue[:limit], nil
	}
	return f.queue, nil
}

func (f *fakeSource) Process(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.processed = append(f.processed, id)
	if err, ok := f.failIDs[id]; ok {
		return err
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newScheduler(t *testing.T, cfg *scheduler.Config, source scheduler.Source) *scheduler.Scheduler {
	t.Helper()
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	return scheduler.New(cfg, source, testLogger())
}

func TestCycleProcessesQueue(t *testing.T) {
	source := &fakeSource{
		queue: []documents.Document{{ID: 1}, {ID: 2}, {ID: 3}},
	}
	s := newScheduler(t, &scheduler.Config{Enabled: true}, source)

	s.Cycle(context.Background())

	if len(source.processed) != 3 {
		t.Fatalf("processed %d documents, want 3", len(source.processed))
	}
	if source.lastLimit != 5 {
		t.Errorf("queue limit = %d, want default batch size 5", source.lastLimit)
	}
}

func TestCycleRespectsBatchSize(t *testing.T) {
	source := &fakeSource{
		queue: []documents.Document{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}},
	}
	s := newScheduler(t, &scheduler.Config{Enabled: true, BatchSize: 2}, source)

	s.Cycle(context.Background())

	if len(source.processed) != 2 {
		t.Errorf("processed %d documents, want 2", len(source.processed))
	}
}

func TestCycleContinuesPastFailures(t *testing.T) {
	source := &fakeSource{
		queue:   []documents.Document{{ID: 1}, {ID: 2}, {ID: 3}},
		failIDs: map[int64]error{2: errors.New("extraction exploded")},
	}
	s := newScheduler(t, &scheduler.Config{Enabled: true}, source)

	s.Cycle(context.Background())

	if len(source.processed) != 3 {
		t.Errorf("a failed document should not stop the batch: processed %v", source.processed)
	}
}

func TestCycleQueueError(t *testing.T) {
	source := &fakeSource{queueErr: errors.New("database gone")}
	s := newScheduler(t, &scheduler.Config{Enabled: true}, source)

	s.Cycle(context.Background())

	if len(source.processed) != 0 {
		t.Error("no documents should process when the queue fetch fails")
	}
}

func TestCycleStopsOnCancel(t *testing.T) {
	source := &fakeSource{
		queue: []documents.Document{{ID: 1}, {ID: 2}},
	}
	s := newScheduler(t, &scheduler.Config{Enabled: true}, source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.Cycle(ctx)

	if len(source.processed) != 0 {
		t.Errorf("cancelled context should stop the sweep, processed %v", source.processed)
	}
}

func TestConfigValidation(t *testing.T) {
	bad := &scheduler.Config{Interval: "soon"}
	if err := bad.Finalize(nil); err == nil {
		t.Error("expected error for unparseable interval")
	}

	negative := &scheduler.Config{Interval: "-10s"}
	if err := negative.Finalize(nil); err == nil {
		t.Error("expected error for negative interval")
	}

	defaults := &scheduler.Config{}
	if err := defaults.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	if defaults.Interval != "30s" || defaults.BatchSize != 5 {
		t.Errorf("defaults = %s/%d, want 30s/5", defaults.Interval, defaults.BatchSize)
	}
}
