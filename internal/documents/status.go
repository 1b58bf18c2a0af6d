package documents

import "fmt"

// Status is the lifecycle state of a document. Statuses are stored as
// strings and validated when read back, so an unknown value in the database
// surfaces as an explicit error rather than a silent default.
type Status string

const (
	StatusReceived      Status = "received"
	StatusProcessing    Status = "processing"
	StatusExtracted     Status = "extracted"
	StatusPendingReview Status = "pending_review"
	StatusReviewed      Status = "reviewed"
	StatusSubmitted     Status = "submitted"
	StatusError         Status = "error"
)

var statuses = map[Status]struct{}{
	StatusReceived:      {},
	StatusProcessing:    {},
	StatusExtracted:     {},
	StatusPendingReview: {},
	StatusReviewed:      {},
	StatusSubmitted:     {},
	StatusError:         {},
}

// transitions enumerates the permitted lifecycle moves. Reviewed allows a
// self-transition so repeated saves keep appending revisions without
// changing state.
var transitions = map[Status][]Status{
	StatusReceived:      {StatusProcessing, StatusPendingReview},
	StatusProcessing:    {StatusExtracted, StatusPendingReview, StatusError},
	StatusExtracted:     {StatusReviewed},
	StatusPendingReview: {StatusReviewed},
	StatusReviewed:      {StatusReviewed, StatusSubmitted},
	StatusSubmitted:     {},
	StatusError:         {},
}

// ParseStatus validates a raw status string from storage or client input.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := statuses[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return status, nil
}

// CanTransition reports whether the lifecycle permits moving from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Reviewable reports whether a reviewer save is permitted in this state.
func (s Status) Reviewable() bool {
	return s == StatusExtracted || s == StatusPendingReview || s == StatusReviewed
}

func (s Status) String() string { return string(s) }
