package services

import (
	"log/slog"
	"time"
)

// Ticker is the single periodic driver behind every time-based transition:
// message expiry, reset boundaries, room expiry, rejoin timeouts and stale
// presence eviction. It runs as a background goroutine and invokes the
// coordinator's Tick, which serializes against inbound events.
type Ticker struct {
	coordinator *Coordinator
	interval    time.Duration
	log         *slog.Logger
	stopChan    chan struct{}
}

// NewTicker creates the driver. interval is normally one second; boundary
// checks use now >= target, so a missed tick delays rather than skips a
// transition.
func NewTicker(coordinator *Coordinator, interval time.Duration, log *slog.Logger) *Ticker {
	return &Ticker{
		coordinator: coordinator,
		interval:    interval,
		log:         log,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the tick loop. This method runs in its own goroutine and
// should be called with 'go'.
func (t *Ticker) Start() {
	t.log.Info("tick driver started", "interval", t.interval)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			t.coordinator.Tick(now.UTC())
		case <-t.stopChan:
			t.log.Info("tick driver stopped")
			return
		}
	}
}

// Stop gracefully shuts down the tick loop.
func (t *Ticker) Stop() {
	close(t.stopChan)
}
