package auction

import (
	"context"
	"sync"
	"time"

	"buyme/utils"
)

// DefaultSweepInterval is how often the background sweep runs when the
// configuration does not say otherwise.
const DefaultSweepInterval = 60 * time.Second

const sweepTimeout = 30 * time.Second

// AlertRunner is the slice of the alert service the scheduler drives:
// one evaluation pass over every stored alert.
type AlertRunner interface {
	RunAlerts(ctx context.Context) (int, error)
}

// Scheduler drives the periodic expiry sweep, then an alert evaluation
// pass over whatever is still open. It shares the lifecycle manager's
// idempotent CloseAuction with the lazy read-path close, so a tick
// racing a request-path close is harmless.
type Scheduler struct {
	lifecycle *Lifecycle
	alerts    AlertRunner
	interval  time.Duration
	ticker    *time.Ticker
	shutdown  chan struct{}
	done      sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewScheduler creates a sweep scheduler with the given tick interval.
// A nil alertRunner skips the alert pass.
func NewScheduler(lifecycle *Lifecycle, alertRunner AlertRunner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Scheduler{
		lifecycle: lifecycle,
		alerts:    alertRunner,
		interval:  interval,
		shutdown:  make(chan struct{}),
	}
}

// Start begins the background sweep loop
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.ticker = time.NewTicker(s.interval)
		s.done.Add(1)
		go s.run()
	})
}

func (s *Scheduler) run() {
	defer s.done.Done()
	defer s.ticker.Stop()

	for {
		select {
		case <-s.ticker.C:
			s.sweep()
			s.runAlerts()
		case <-s.shutdown:
			return
		}
	}
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := s.lifecycle.SweepExpiredAuctions(ctx, time.Now().UTC()); err != nil {
		utils.Error("expiry sweep failed", map[string]any{
			"error": err.Error(),
		})
	}
}

func (s *Scheduler) runAlerts() {
	if s.alerts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := s.alerts.RunAlerts(ctx); err != nil {
		utils.Error("alert evaluation failed", map[string]any{
			"error": err.Error(),
		})
	}
}

// Shutdown stops the sweep loop and waits for an in-flight sweep to finish
func (s *Scheduler) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.shutdown)
	})
	s.done.Wait()
	utils.Info("auction scheduler shutdown complete", nil)
}
