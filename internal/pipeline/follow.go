package pipeline

import (
	"context"
	"time"

	"github.com/atikulmunna/threadline/internal/watcher"
)

// Follow calls onChange after every burst of change events, once the log has
// been quiet for debounce. It returns when ctx is cancelled or events is
// closed.
func Follow(ctx context.Context, events <-chan watcher.Event, debounce time.Duration, onChange func()) {
	// fire is nil while nothing is scheduled.
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			fire = time.After(debounce)
		case <-fire:
			fire = nil
			onChange()
		}
	}
}
