package auction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"buyme/internal/auctionerrors"
)

// lockTable serializes all work touching a single auction: bid placement
// (including the auto-bid loop) and close transitions contend on the same
// entry. Different auctions never share a lock.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]chan struct{})}
}

func (t *lockTable) entry(auctionID string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch, ok := t.locks[auctionID]
	if !ok {
		ch = make(chan struct{}, 1)
		t.locks[auctionID] = ch
	}
	return ch
}

// acquire takes the per-auction lock, waiting at most timeout. Callers
// that cannot get the lock in time receive ErrBusy and may retry.
func (t *lockTable) acquire(ctx context.Context, auctionID string, timeout time.Duration) (release func(), err error) {
	ch := t.entry(auctionID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-timer.C:
		return nil, fmt.Errorf("lock auction %s: %w", auctionID, auctionerrors.ErrBusy)
	case <-ctx.Done():
		return nil, fmt.Errorf("lock auction %s: %w", auctionID, ctx.Err())
	}
}
