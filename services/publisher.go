package services

import (
	"context"

	"auction-release-api/models"
)

// Publisher turns an accepted submission into a public listing and later
// locks it away. Implementations perform network I/O; every call receives
// a bounded-timeout context from the caller.
type Publisher interface {
	// Post publishes the submission and returns an opaque public handle
	// identifying where it was posted.
	Post(ctx context.Context, sub *models.Submission) (string, error)

	// Close archives the listing behind the handle. Closing an
	// already-closed handle is a no-op, not an error.
	Close(ctx context.Context, handle string) error
}

// Notifier delivers a message to a submission owner. Delivery is
// best-effort: callers log failures and move on.
type Notifier interface {
	Send(ctx context.Context, ownerID int, message string) error
}
