package downloader

import (
	"time"

	"github.com/kaelvex/frontier/pkg/limiter"
	"github.com/kaelvex/frontier/pkg/timeutil"
)

// HostPoliteness is a second, independent politeness layer beneath the
// Frontier's own: a single object consolidating per-host last-fetch
// bookkeeping that would otherwise live as two separate maps (one for
// timestamps, one for locks) into one rate limiter shared by every worker
// goroutine, enforcing the configured per-host delay inside the
// downloader instead of the Frontier.
type HostPoliteness struct {
	limiter limiter.RateLimiter
	sleeper timeutil.Sleeper
}

// NewHostPoliteness builds a HostPoliteness enforcing at least delay
// between two fetches of the same host.
func NewHostPoliteness(delay time.Duration) *HostPoliteness {
	rl := limiter.NewConcurrentRateLimiter()
	rl.SetBaseDelay(delay)
	return &HostPoliteness{
		limiter: rl,
		sleeper: timeutil.NewRealSleeper(),
	}
}

// Wait blocks the calling goroutine until host has gone quiet for at
// least the configured delay, then marks host as fetched now. Hosts are
// created lazily in the limiter's map on first sight; nothing needs a
// coarse lock here since ConcurrentRateLimiter already guards its map.
func (h *HostPoliteness) Wait(host string) {
	delay := h.limiter.ResolveDelay(host)
	h.sleeper.Sleep(delay)
	h.limiter.MarkLastFetchAsNow(host)
}

// SetSleeperForTest overrides the sleeper so tests can assert politeness
// without real wall-clock delay.
func (h *HostPoliteness) SetSleeperForTest(s timeutil.Sleeper) {
	h.sleeper = s
}
