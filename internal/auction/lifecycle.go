package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"buyme/internal/auctionerrors"
	"buyme/internal/metrics"
	model "buyme/internal/models"
	"buyme/internal/repository"
	"buyme/utils"
)

// Lifecycle owns the open→closed transition and winner settlement. It is
// the only writer of an auction's status, winner and winning_bid fields.
// Sweep ticks, lazy read-path checks and moderator close requests all
// funnel into the same idempotent CloseAuction.
type Lifecycle struct {
	repo        repository.MarketplaceDB
	notifier    Notifier
	locks       *lockTable
	lockTimeout time.Duration
}

// CloseAuction settles an auction and transitions it to closed. Calling
// it on an already-closed auction returns the recorded settlement and
// performs no mutation.
func (l *Lifecycle) CloseAuction(ctx context.Context, auctionID string) (*model.AuctionSnapshot, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("lifecycle: %w: empty auction id", auctionerrors.ErrInvalidRequest)
	}

	release, err := l.locks.acquire(ctx, auctionID, l.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	auction, err := l.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: %w", err)
	}
	return l.closeLocked(ctx, auction)
}

// closeLocked performs the settlement. Caller holds the auction's lock.
func (l *Lifecycle) closeLocked(ctx context.Context, auction *model.Auction) (*model.AuctionSnapshot, error) {
	if auction.Status == model.AuctionStatusClosed {
		return snapshot(auction), nil
	}

	top, err := l.repo.TopBid(ctx, auction.AuctionID)
	if err != nil && !errors.Is(err, auctionerrors.ErrNoBids) {
		return nil, fmt.Errorf("lifecycle: failed to read top bid: %w", err)
	}

	var winnerID *string
	var winningBid *model.Bid
	outcome := "no_bids"
	if top != nil {
		winningBid = top
		if top.Amount.GreaterThanOrEqual(auction.ReservePrice) {
			id := top.Bidder.UserID
			winnerID = &id
			outcome = "won"
		} else {
			// Reserve not met: the high bid amount is retained for
			// reporting but no sale happens.
			outcome = "reserve_not_met"
		}
	}

	auction.Status = model.AuctionStatusClosed
	auction.WinnerID = winnerID
	if winningBid != nil {
		amount := winningBid.Amount
		auction.WinningBid = &amount
	}

	if err := l.repo.MarkClosed(ctx, auction.AuctionID, auction.WinnerID, auction.WinningBid); err != nil {
		return nil, fmt.Errorf("lifecycle: failed to close auction %s: %w", auction.AuctionID, err)
	}
	metrics.AuctionsClosedTotal.WithLabelValues(outcome).Inc()

	snap := snapshot(auction)
	l.notifier.NotifyAuctionClosed(*snap)

	utils.Info("auction closed", map[string]any{
		"auction_id": auction.AuctionID,
		"outcome":    outcome,
	})
	return snap, nil
}

// CloseIfExpired settles the auction when its end time has passed; an
// auction that is already closed or still running is left alone. Read
// paths call this so stale-open auctions converge without waiting for
// the next sweep tick.
func (l *Lifecycle) CloseIfExpired(ctx context.Context, auctionID string) error {
	auction, err := l.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("lifecycle: %w", err)
	}
	if auction.Status != model.AuctionStatusOpen || !auction.Expired(time.Now().UTC()) {
		return nil
	}
	if _, err := l.CloseAuction(ctx, auctionID); err != nil {
		return err
	}
	return nil
}

// SweepExpiredAuctions settles every open auction whose end time is at
// or before now and returns how many it closed. A failure on one auction
// is logged and does not stop the sweep.
func (l *Lifecycle) SweepExpiredAuctions(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	expired, err := l.repo.ExpiredOpenAuctions(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("lifecycle: failed to list expired auctions: %w", err)
	}

	closed := 0
	for _, auction := range expired {
		if _, err := l.CloseAuction(ctx, auction.AuctionID); err != nil {
			utils.Error("failed to close expired auction", map[string]any{
				"auction_id": auction.AuctionID,
				"error":      err.Error(),
			})
			continue
		}
		closed++
	}

	if closed > 0 {
		utils.Info("expiry sweep complete", map[string]any{
			"closed": closed,
			"at":     now.UTC().Format(time.RFC3339),
		})
	}
	return closed, nil
}

func snapshot(auction *model.Auction) *model.AuctionSnapshot {
	return &model.AuctionSnapshot{
		AuctionID:  auction.AuctionID,
		Status:     auction.Status,
		WinnerID:   auction.WinnerID,
		WinningBid: auction.WinningBid,
		EndTime:    auction.EndTime,
	}
}
