// Package notifications publishes document lifecycle events to connected
// clients. Delivery is fire-and-forget: producers never block and a slow
// subscriber only loses its own events.
package notifications

// Event types published by the document pipeline.
const (
	EventDocumentReceived = "document.received"
	EventStatusChanged    = "document.status_changed"
	EventDocumentDeleted  = "document.deleted"
)

// Event is a single lifecycle notification.
type Event struct {
	Type       string `json:"type"`
	DocumentID int64  `json:"document_id"`
	Filename   string `json:"filename,omitempty"`
	Status     string `json:"status,omitempty"`
}

// Sink receives document lifecycle events. Implementations must not block.
type Sink interface {
	DocumentReceived(id int64, filename string)
	DocumentStatusChanged(id int64, status string)
	DocumentDeleted(id int64)
}

// Noop discards all events.
type Noop struct{}

func (Noop) DocumentReceived(int64, string)      {}
func (Noop) DocumentStatusChanged(int64, string) {}
func (Noop) DocumentDeleted(int64)               {}
