package discord

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/keshon/server-herald/internal/logging"
)

// The indicator lasts about ten seconds on the client side.
const defaultTypingInterval = 8 * time.Second

// startTyping sends once synchronously and then refreshes on every tick
// until stop is called or ctx ends.
func startTyping(ctx context.Context, clock clockwork.Clock, every time.Duration, send func(context.Context) error) (func(), error) {
	if err := send(ctx); err != nil {
		return func() {}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	ticker := clock.NewTicker(every)

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if err := send(ctx); err != nil && ctx.Err() == nil {
					logging.Debugf("Typing refresh failed: %v", err)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}
