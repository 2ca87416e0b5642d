package auction

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"buyme/internal/auctionerrors"
	"buyme/internal/metrics"
	model "buyme/internal/models"
	"buyme/internal/repository"
	"buyme/utils"

	"github.com/shopspring/decimal"
)

const (
	// DefaultLockTimeout bounds how long a bid request waits for its
	// auction's lock before failing with ErrBusy.
	DefaultLockTimeout = 3 * time.Second

	// maxConflictRetries bounds recomputation when the ledger reports a
	// stale append. With the per-auction lock held, conflicts only come
	// from a second process sharing the store, so they are rare.
	maxConflictRetries = 3
)

// Engine implements proxy bidding: it validates inbound bids, appends
// them to the ledger, and runs the automatic counter-bidding sequence
// over the bidders' recorded ceilings. All work on one auction happens
// under that auction's lock, shared with the lifecycle manager.
type Engine struct {
	repo        repository.MarketplaceDB
	notifier    Notifier
	locks       *lockTable
	lifecycle   *Lifecycle
	lockTimeout time.Duration
}

// NewEngine creates the bidding engine together with its lifecycle
// manager; both serialize per-auction work through the same lock table.
func NewEngine(repo repository.MarketplaceDB, notifier Notifier) *Engine {
	locks := newLockTable()
	e := &Engine{
		repo:        repo,
		notifier:    notifier,
		locks:       locks,
		lockTimeout: DefaultLockTimeout,
	}
	e.lifecycle = &Lifecycle{
		repo:        repo,
		notifier:    notifier,
		locks:       locks,
		lockTimeout: DefaultLockTimeout,
	}
	return e
}

// WithLockTimeout overrides how long bid and close requests wait for an
// auction's lock before failing with ErrBusy. Non-positive values keep
// the default.
func (e *Engine) WithLockTimeout(timeout time.Duration) *Engine {
	if timeout > 0 {
		e.lockTimeout = timeout
		e.lifecycle.lockTimeout = timeout
	}
	return e
}

// Lifecycle returns the lifecycle manager sharing this engine's locks
func (e *Engine) Lifecycle() *Lifecycle {
	return e.lifecycle
}

// PlaceBid validates and records a bid, then settles the automatic
// counter-bidding sequence. Exactly one of amount (manual bid) or maxBid
// (proxy bid with a private ceiling) must be supplied. It returns the
// top bid standing after the auto-bid loop converges.
func (e *Engine) PlaceBid(ctx context.Context, auctionID string, bidder model.Bidder, amount, maxBid *decimal.Decimal) (*model.Bid, error) {
	if auctionID == "" || bidder.UserID == "" {
		return nil, reject(fmt.Errorf("engine: %w: missing auction or bidder id", auctionerrors.ErrInvalidRequest))
	}
	if amount == nil && maxBid == nil {
		return nil, reject(fmt.Errorf("engine: %w: either amount or max_bid is required", auctionerrors.ErrInvalidRequest))
	}
	if amount != nil && maxBid != nil {
		return nil, reject(fmt.Errorf("engine: %w: amount and max_bid are mutually exclusive", auctionerrors.ErrInvalidRequest))
	}

	release, err := e.locks.acquire(ctx, auctionID, e.lockTimeout)
	if err != nil {
		return nil, reject(err)
	}
	defer release()

	var top *model.Bid
	for attempt := 0; ; attempt++ {
		top, err = e.placeBidLocked(ctx, auctionID, bidder, amount, maxBid)
		if err == nil || !errors.Is(err, auctionerrors.ErrBidConflict) || attempt >= maxConflictRetries {
			break
		}
		utils.Warn("bid conflicted with newer top bid, recomputing", map[string]any{
			"auction_id": auctionID,
			"user_id":    bidder.UserID,
			"attempt":    attempt + 1,
		})
	}
	if err != nil {
		return nil, reject(err)
	}
	return top, nil
}

// placeBidLocked runs one validate-append-settle pass. Caller holds the
// auction's lock.
func (e *Engine) placeBidLocked(ctx context.Context, auctionID string, bidder model.Bidder, amount, maxBid *decimal.Decimal) (*model.Bid, error) {
	auction, err := e.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	now := time.Now().UTC()
	if auction.Status != model.AuctionStatusOpen {
		return nil, fmt.Errorf("engine: %w", auctionerrors.ErrAuctionClosed)
	}
	if auction.Expired(now) {
		// The sweep has not reached this auction yet; settle it now
		// rather than accept a bid past the end time.
		if _, err := e.lifecycle.closeLocked(ctx, auction); err != nil {
			utils.Error("lazy close before bid failed", map[string]any{
				"auction_id": auctionID,
				"error":      err.Error(),
			})
		}
		return nil, fmt.Errorf("engine: %w", auctionerrors.ErrAuctionClosed)
	}
	if auction.SellerID == bidder.UserID {
		return nil, fmt.Errorf("engine: %w", auctionerrors.ErrSelfBid)
	}

	top, err := e.repo.TopBid(ctx, auctionID)
	if err != nil && !errors.Is(err, auctionerrors.ErrNoBids) {
		return nil, fmt.Errorf("engine: failed to read top bid: %w", err)
	}
	if top != nil && top.Bidder.Equal(bidder) {
		return nil, fmt.Errorf("engine: %w", auctionerrors.ErrAlreadyHighest)
	}

	highest := auction.InitPrice
	if top != nil {
		highest = top.Amount
	}
	requiredMin := highest.Add(auction.Increment)

	bid := &model.Bid{
		AuctionID: auctionID,
		Bidder:    bidder,
		CreatedAt: now,
	}
	var kind string
	switch {
	case amount != nil:
		if amount.LessThan(requiredMin) {
			return nil, fmt.Errorf("engine: %w: bid must be at least %s", auctionerrors.ErrBidTooLow, requiredMin)
		}
		if amount.LessThan(auction.ReservePrice) {
			return nil, fmt.Errorf("engine: %w: reserve is %s", auctionerrors.ErrBelowReserve, auction.ReservePrice)
		}
		bid.Amount = *amount
		kind = "manual"
	default:
		if !maxBid.GreaterThan(highest) {
			return nil, fmt.Errorf("engine: %w: current bid is %s", auctionerrors.ErrMaxBidTooLow, highest)
		}
		bid.Amount = decimal.Min(*maxBid, requiredMin)
		bid.MaxBid = maxBid
		kind = "proxy"
	}

	if err := e.repo.AppendBid(ctx, bid); err != nil {
		return nil, fmt.Errorf("engine: failed to append bid: %w", err)
	}
	metrics.BidsTotal.WithLabelValues(kind).Inc()

	if top != nil {
		e.notifier.NotifyOutbid(auctionID, top.Bidder, bid.Amount)
	}

	return e.runAutoBids(ctx, auction)
}

// bidderCeiling is one bidder's reconstructed proxy state: the highest
// ceiling they ever authorized and the insertion id of their first bid
// (the deterministic tie-break between equal ceilings).
type bidderCeiling struct {
	bidder   model.Bidder
	ceiling  decimal.Decimal
	firstBid int64
}

// runAutoBids executes the counter-bidding sequence: while a bidder who
// is not currently winning still has ceiling headroom above the top bid
// plus one increment, an automatic bid is appended on their behalf. The
// price strictly increases each iteration, so the loop terminates once
// every challenger's ceiling is exhausted.
func (e *Engine) runAutoBids(ctx context.Context, auction *model.Auction) (*model.Bid, error) {
	bids, err := e.repo.BidsFor(ctx, auction.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to reconstruct ceilings: %w", err)
	}
	ceilings := reconstructCeilings(bids)

	top, err := e.repo.TopBid(ctx, auction.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to read top bid: %w", err)
	}

	for len(ceilings) >= 2 {
		challenger, ok := strongestChallenger(ceilings, top.Bidder)
		if !ok {
			break
		}
		candidate := top.Amount.Add(auction.Increment)
		if candidate.GreaterThan(challenger.ceiling) {
			break
		}

		autoBid := &model.Bid{
			AuctionID: auction.AuctionID,
			Bidder:    challenger.bidder,
			Amount:    candidate,
			Auto:      true,
			CreatedAt: time.Now().UTC(),
		}
		if err := e.repo.AppendBid(ctx, autoBid); err != nil {
			return nil, fmt.Errorf("engine: failed to append auto-bid: %w", err)
		}
		metrics.BidsTotal.WithLabelValues("auto").Inc()
		utils.Debug("auto bid appended", map[string]any{
			"auction_id": auction.AuctionID,
			"user_id":    challenger.bidder.UserID,
			"amount":     candidate.String(),
		})
		e.notifier.NotifyOutbid(auction.AuctionID, top.Bidder, candidate)

		top = autoBid
	}

	return top, nil
}

// reconstructCeilings derives each bidder's highest authorized ceiling
// from the full ledger. Manual and automatic bids authorize only their
// own amount; proxy bids authorize their private max_bid.
func reconstructCeilings(bids []model.Bid) map[string]bidderCeiling {
	ceilings := make(map[string]bidderCeiling)
	for _, bid := range bids {
		entry, ok := ceilings[bid.Bidder.UserID]
		if !ok {
			ceilings[bid.Bidder.UserID] = bidderCeiling{
				bidder:   bid.Bidder,
				ceiling:  bid.Ceiling(),
				firstBid: bid.BidID,
			}
			continue
		}
		if bid.Ceiling().GreaterThan(entry.ceiling) {
			entry.ceiling = bid.Ceiling()
		}
		ceilings[bid.Bidder.UserID] = entry
	}
	return ceilings
}

// strongestChallenger picks the bidder best placed to counter the
// current top bid: the highest ceiling among bidders who are not
// winning, ties going to the earlier participant.
func strongestChallenger(ceilings map[string]bidderCeiling, winner model.Bidder) (bidderCeiling, bool) {
	var best bidderCeiling
	found := false
	for userID, entry := range ceilings {
		if userID == winner.UserID {
			continue
		}
		if !found ||
			entry.ceiling.GreaterThan(best.ceiling) ||
			(entry.ceiling.Equal(best.ceiling) && entry.firstBid < best.firstBid) {
			best = entry
			found = true
		}
	}
	return best, found
}

// GetTopBid returns the current top bid for an auction, settling the
// auction first if its end time has passed.
func (e *Engine) GetTopBid(ctx context.Context, auctionID string) (*model.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("engine: %w: empty auction id", auctionerrors.ErrInvalidRequest)
	}
	if err := e.lifecycle.CloseIfExpired(ctx, auctionID); err != nil {
		return nil, err
	}

	top, err := e.repo.TopBid(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to get top bid for auction %s: %w", auctionID, err)
	}
	return top, nil
}

// ListBids returns an auction's bids as shown to users: descending by
// amount, insertion order breaking ties. Other bidders' private ceilings
// are stripped by the handler layer, not here.
func (e *Engine) ListBids(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("engine: %w: empty auction id", auctionerrors.ErrInvalidRequest)
	}
	if err := e.lifecycle.CloseIfExpired(ctx, auctionID); err != nil {
		return nil, err
	}

	bids, err := e.repo.BidsFor(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to list bids for auction %s: %w", auctionID, err)
	}
	sort.Slice(bids, func(i, j int) bool {
		if !bids[i].Amount.Equal(bids[j].Amount) {
			return bids[i].Amount.GreaterThan(bids[j].Amount)
		}
		return bids[i].BidID < bids[j].BidID
	})
	return bids, nil
}

// reject records the rejection reason metric and passes the error on
func reject(err error) error {
	metrics.BidRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
	return err
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return "not_found"
	case errors.Is(err, auctionerrors.ErrAuctionClosed):
		return "closed"
	case errors.Is(err, auctionerrors.ErrSelfBid):
		return "self_bid"
	case errors.Is(err, auctionerrors.ErrAlreadyHighest):
		return "already_highest"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return "too_low"
	case errors.Is(err, auctionerrors.ErrBelowReserve):
		return "below_reserve"
	case errors.Is(err, auctionerrors.ErrMaxBidTooLow):
		return "max_bid_too_low"
	case errors.Is(err, auctionerrors.ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, auctionerrors.ErrBusy), errors.Is(err, auctionerrors.ErrBidConflict):
		return "contention"
	default:
		return "internal"
	}
}
