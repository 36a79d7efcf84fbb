package port

import "context"

// EventListenerPort is a component that listens to external events (queue messages)
// and runs the matching use case.
type EventListenerPort interface {
	// Start blocks until ctx is cancelled or the listener fails
	Start(ctx context.Context) error

	// Close stops the listener after in-flight work is done
	Close() error
}
