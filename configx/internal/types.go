// Package internal provides internal implementation details for configx.
package internal

import "context"

// Source describes a configuration source that can load and watch for updates.
// Implementations must be thread-safe and honor context cancellation.
type Source interface {
	// Load reads the current configuration snapshot.
	Load(ctx context.Context) (map[string]string, error)

	// Watch publishes fresh snapshots until ctx is done, then closes the channel.
	Watch(ctx context.Context) (<-chan map[string]string, error)
}

// idle returns a channel that is closed once ctx is done and never sends.
func idle(ctx context.Context) <-chan map[string]string {
	ch := make(chan map[string]string)
	go func() {
		defer close(ch)
		<-ctx.Done()
	}()
	return ch
}
