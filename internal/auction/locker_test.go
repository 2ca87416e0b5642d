package auction

import (
	"context"
	"testing"
	"time"

	"buyme/internal/auctionerrors"
	model "buyme/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Test that a held lock times out a second acquirer with ErrBusy and is
// usable again once released
func TestLockTable_AcquireTimeout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	table := newLockTable()

	release, err := table.acquire(ctx, "auction1", time.Second)
	require.NoError(t, err)

	_, err = table.acquire(ctx, "auction1", 20*time.Millisecond)
	require.ErrorIs(t, err, auctionerrors.ErrBusy)

	// A different auction is never blocked by auction1's holder.
	otherRelease, err := table.acquire(ctx, "auction2", 20*time.Millisecond)
	require.NoError(t, err)
	otherRelease()

	release()
	release, err = table.acquire(ctx, "auction1", 20*time.Millisecond)
	require.NoError(t, err)
	release()
}

// Test that context cancellation surfaces the context error, not ErrBusy
func TestLockTable_ContextCanceled(t *testing.T) {
	t.Parallel()

	table := newLockTable()

	release, err := table.acquire(context.Background(), "auction1", time.Second)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = table.acquire(ctx, "auction1", time.Minute)
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, auctionerrors.ErrBusy)
}

// Test that a bid against a locked auction fails with ErrBusy once the
// configured wait is exhausted
func TestEngine_PlaceBid_BusyWhenLocked(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, _, _ := newTestEngine(t, openAuction("auction1", 100, 10, 0))
	engine.WithLockTimeout(20 * time.Millisecond)

	release, err := engine.locks.acquire(ctx, "auction1", time.Second)
	require.NoError(t, err)

	amount := decimal.NewFromInt(150)
	_, err = engine.PlaceBid(ctx, "auction1", model.Bidder{UserID: "u1"}, &amount, nil)
	require.ErrorIs(t, err, auctionerrors.ErrBusy)

	release()
	top, err := engine.PlaceBid(ctx, "auction1", model.Bidder{UserID: "u1"}, &amount, nil)
	require.NoError(t, err)
	require.True(t, top.Amount.Equal(amount))
}
