package lifecycle_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/waybill/pkg/lifecycle"
)

func TestStartupHooks(t *testing.T) {
	lc := lifecycle.New()

	var count atomic.Int32
	lc.OnStartup(func() { count.Add(1) })
	lc.OnStartup(func() { count.Add(1) })

	if lc.Ready() {
		t.Error("coordinator should not be ready before WaitForStartup")
	}

	lc.WaitForStartup()

	if count.Load() != 2 {
		t.Errorf("startup hooks ran %d times, want 2", count.Load())
	}
	if !lc.Ready() {
		t.Error("coordinator should be ready after WaitForStartup")
	}
}

func TestShutdownCancelsContext(t *testing.T) {
	lc := lifecycle.New()

	done := make(chan struct{})
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		close(done)
	})

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	select {
	case <-done:
	default:
		t.Error("shutdown hook did not run")
	}
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()

	release := make(chan struct{})
	lc.OnShutdown(func() { <-release })
	defer close(release)

	if err := lc.Shutdown(10 * time.Millisecond); err == nil {
		t.Error("expected timeout error for a stuck shutdown hook")
	}
}
