package notifications

import (
	"log/slog"
	"sync"
)

const subscriberBuffer = 16

// Hub fans events out to subscribers over buffered channels. Publishing
// never blocks: when a subscriber's buffer is full the event is dropped for
// that subscriber and a warning is logged.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	logger      *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[chan Event]struct{}),
		logger:      logger.With("system", "notifications"),
	}
}

// Subscribe registers a new subscriber. The returned cancel function removes
// the subscription and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			h.mu.Unlock()
			close(ch)
		})
	}

	return ch, cancel
}

// Subscribers reports the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) DocumentReceived(id int64, filename string) {
	h.publish(Event{Type: EventDocumentReceived, DocumentID: id, Filename: filename})
}

func (h *Hub) DocumentStatusChanged(id int64, status string) {
	h.publish(Event{Type: EventStatusChanged, DocumentID: id, Status: status})
}

func (h *Hub) DocumentDeleted(id int64) {
	h.publish(Event{Type: EventDocumentDeleted, DocumentID: id})
}

func (h *Hub) publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			h.logger.Warn("subscriber buffer full, event dropped",
				"type", event.Type,
				"document_id", event.DocumentID)
		}
	}
}
