package application

import (
	"context"
	"log/slog"
	"time"
)

// EventName identifies a tracked lifecycle event.
type EventName string

const (
	// EventRequestCreated fires after a request or series commits.
	EventRequestCreated EventName = "request.created"
	// EventRequestUpdated fires after a request or series update commits.
	EventRequestUpdated EventName = "request.updated"
	// EventRequestCancelled fires after a cancellation commits.
	EventRequestCancelled EventName = "request.cancelled"
)

// Event describes a committed mutation for the analytics collaborator.
type Event struct {
	Name       EventName
	UserID     string
	RequestIDs []string
	SeriesID   *string
	OccurredAt time.Time
}

// Tracker receives fire-and-forget notifications after successful commits.
// Implementations must tolerate being called concurrently.
type Tracker interface {
	Track(ctx context.Context, event Event) error
}

// fireEvent notifies the tracker after a commit. Tracker failures are logged
// and never propagated: the mutation has already committed and must not be
// reported as failed.
func fireEvent(ctx context.Context, tracker Tracker, logger *slog.Logger, event Event) {
	if tracker == nil {
		return
	}
	if err := tracker.Track(ctx, event); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.WarnContext(ctx, "event tracking failed", "event", string(event.Name), "error", err)
	}
}

func requestIDs(requests []Request) []string {
	ids := make([]string, len(requests))
	for i, request := range requests {
		ids[i] = request.ID
	}
	return ids
}
