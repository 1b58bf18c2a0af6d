package notifications_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/JaimeStill/waybill/internal/notifications"
)

func newHub() *notifications.Hub {
	return notifications.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSubscribeAndPublish(t *testing.T) {
	hub := newHub()

	events, cancel := hub.Subscribe()
	defer cancel()

	hub.DocumentReceived(1, "report.pdf")
	hub.DocumentStatusChanged(1, "extracted")
	hub.DocumentDeleted(1)

	first := <-events
	if first.Type != notifications.EventDocumentReceived || first.Filename != "report.pdf" {
		t.Errorf("first event = %+v", first)
	}

	second := <-events
	if second.Type != notifications.EventStatusChanged || second.Status != "extracted" {
		t.Errorf("second event = %+v", second)
	}

	third := <-events
	if third.Type != notifications.EventDocumentDeleted || third.DocumentID != 1 {
		t.Errorf("third event = %+v", third)
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	hub := newHub()

	_, cancel := hub.Subscribe()
	defer cancel()

	// well past the subscriber buffer; a blocking publish would hang the test
	for i := range 100 {
		hub.DocumentReceived(int64(i), "flood.pdf")
	}
}

func TestCancelRemovesSubscriber(t *testing.T) {
	hub := newHub()

	events, cancel := hub.Subscribe()
	if hub.Subscribers() != 1 {
		t.Fatalf("subscribers = %d, want 1", hub.Subscribers())
	}

	cancel()
	if hub.Subscribers() != 0 {
		t.Errorf("subscribers after cancel = %d, want 0", hub.Subscribers())
	}

	if _, open := <-events; open {
		t.Error("channel should be closed after cancel")
	}

	// second cancel is a no-op
	cancel()
}

func TestPublishAfterCancel(t *testing.T) {
	hub := newHub()

	_, cancel := hub.Subscribe()
	cancel()

	// must not panic on the closed channel
	hub.DocumentReceived(1, "late.pdf")
}

func TestMultipleSubscribers(t *testing.T) {
	hub := newHub()

	a, cancelA := hub.Subscribe()
	b, cancelB := hub.Subscribe()
	defer cancelA()
	defer cancelB()

	hub.DocumentDeleted(7)

	if got := <-a; got.DocumentID != 7 {
		t.Errorf("subscriber a got %+v", got)
	}
	if got := <-b; got.DocumentID != 7 {
		t.Errorf("subscriber b got %+v", got)
	}
}
