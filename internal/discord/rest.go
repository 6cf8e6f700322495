package discord

import (
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jonboulle/clockwork"

	"github.com/keshon/server-herald/internal/logging"
	"github.com/keshon/server-herald/pkg/retrylimit"
)

// restStatus extracts the HTTP status of a failed REST call.
func restStatus(err error) (int, bool) {
	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) && rerr.Response != nil {
		return rerr.Response.StatusCode, true
	}
	return retrylimit.DefaultStatus(err)
}

// newRetrier paces REST calls and retries 429s and 5xx responses.
func newRetrier(clock clockwork.Clock) *retrylimit.Retrier {
	lim := retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5).WithClock(clock)

	cfg := retrylimit.DefaultConfig()
	cfg.MaxAttempts = 3
	cfg.MaxDelay = 5 * time.Second
	cfg.Status = restStatus
	cfg.Clock = clock
	cfg.OnRetry = func(attempt int, err error) {
		logging.Debugf("Discord REST attempt %d failed: %v", attempt, err)
	}
	return retrylimit.New(lim, cfg)
}
