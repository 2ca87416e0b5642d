package auction

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"buyme/internal/auctionerrors"
	model "buyme/internal/models"
	"buyme/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func dp(v float64) *decimal.Decimal {
	dec := decimal.NewFromFloat(v)
	return &dec
}

// recordingNotifier captures notifications for assertions
type recordingNotifier struct {
	mu      sync.Mutex
	outbid  []model.Bidder
	closed  []model.AuctionSnapshot
}

func (n *recordingNotifier) NotifyOutbid(_ string, displaced model.Bidder, _ decimal.Decimal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.outbid = append(n.outbid, displaced)
}

func (n *recordingNotifier) NotifyAuctionClosed(snap model.AuctionSnapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = append(n.closed, snap)
}

// newTestEngine seeds a repo with one open auction and returns the
// engine wired to it.
func newTestEngine(t *testing.T, auction model.Auction) (*Engine, *repository.MemoryRepo, *recordingNotifier) {
	t.Helper()
	ctx := context.Background()

	repo := repository.NewMemoryRepo()
	require.NoError(t, repo.CreateCategory(ctx, &model.Category{CategoryID: "cat1", Name: "general"}))
	require.NoError(t, repo.CreateItem(ctx, &model.Item{ItemID: auction.ItemID, Title: auction.ItemID, CategoryID: "cat1"}))
	require.NoError(t, repo.CreateAuction(ctx, &auction))

	notifier := &recordingNotifier{}
	return NewEngine(repo, notifier), repo, notifier
}

func openAuction(auctionID string, initPrice, increment, reserve float64) model.Auction {
	now := time.Now().UTC()
	return model.Auction{
		AuctionID:    auctionID,
		ItemID:       "item-" + auctionID,
		SellerID:     "seller1",
		StartTime:    now,
		EndTime:      now.Add(time.Hour),
		InitPrice:    d(initPrice),
		Increment:    d(increment),
		ReservePrice: d(reserve),
		Status:       model.AuctionStatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Test PlaceBid input validation and basic rejections
func TestEngine_PlaceBid_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, _, _ := newTestEngine(t, openAuction("auction1", 100, 10, 0))

	tests := []struct {
		name      string
		auctionID string
		bidder    model.Bidder
		amount    *decimal.Decimal
		maxBid    *decimal.Decimal
		wantErr   error
	}{
		{name: "missing_auction_id", auctionID: "", bidder: model.Bidder{UserID: "u1"}, amount: dp(110), wantErr: auctionerrors.ErrInvalidRequest},
		{name: "missing_user_id", auctionID: "auction1", bidder: model.Bidder{}, amount: dp(110), wantErr: auctionerrors.ErrInvalidRequest},
		{name: "neither_amount_nor_max", auctionID: "auction1", bidder: model.Bidder{UserID: "u1"}, wantErr: auctionerrors.ErrInvalidRequest},
		{name: "both_amount_and_max", auctionID: "auction1", bidder: model.Bidder{UserID: "u1"}, amount: dp(110), maxBid: dp(200), wantErr: auctionerrors.ErrInvalidRequest},
		{name: "unknown_auction", auctionID: "auctionX", bidder: model.Bidder{UserID: "u1"}, amount: dp(110), wantErr: auctionerrors.ErrAuctionNotFound},
		{name: "seller_bids_own_auction", auctionID: "auction1", bidder: model.Bidder{UserID: "seller1"}, amount: dp(110), wantErr: auctionerrors.ErrSelfBid},
		{name: "manual_below_minimum", auctionID: "auction1", bidder: model.Bidder{UserID: "u1"}, amount: dp(105), wantErr: auctionerrors.ErrBidTooLow},
		{name: "max_bid_not_above_current", auctionID: "auction1", bidder: model.Bidder{UserID: "u1"}, maxBid: dp(100), wantErr: auctionerrors.ErrMaxBidTooLow},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.PlaceBid(ctx, tc.auctionID, tc.bidder, tc.amount, tc.maxBid)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

// Test that a manual bid's observable amount is exactly what was asked
func TestEngine_PlaceBid_Manual(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, _, _ := newTestEngine(t, openAuction("auction1", 100, 10, 0))

	top, err := engine.PlaceBid(ctx, "auction1", model.Bidder{UserID: "u1"}, dp(150), nil)
	require.NoError(t, err)
	require.True(t, top.Amount.Equal(d(150)))
	require.Nil(t, top.MaxBid)
	require.False(t, top.Auto)

	t.Run("same_bidder_cannot_raise_own_top", func(t *testing.T) {
		_, err := engine.PlaceBid(ctx, "auction1", model.Bidder{UserID: "u1"}, dp(200), nil)
		require.ErrorIs(t, err, auctionerrors.ErrAlreadyHighest)
	})

	t.Run("next_bid_must_clear_increment", func(t *testing.T) {
		_, err := engine.PlaceBid(ctx, "auction1", model.Bidder{UserID: "u2"}, dp(155), nil)
		require.ErrorIs(t, err, auctionerrors.ErrBidTooLow)

		top, err := engine.PlaceBid(ctx, "auction1", model.Bidder{UserID: "u2"}, dp(160), nil)
		require.NoError(t, err)
		require.True(t, top.Amount.Equal(d(160)))
	})
}

// Test that a proxy bid only reveals the minimum needed, not its ceiling
func TestEngine_PlaceBid_ProxyRevealsMinimum(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, _, _ := newTestEngine(t, openAuction("auction1", 100, 10, 0))

	top, err := engine.PlaceBid(ctx, "auction1", model.Bidder{UserID: "x"}, nil, dp(200))
	require.NoError(t, err)
	require.True(t, top.Amount.Equal(d(110)), "observable amount should be init + increment, got %s", top.Amount)
	require.NotNil(t, top.MaxBid)
	require.True(t, top.MaxBid.Equal(d(200)))
}

// Test the full counter-bidding duel between two proxy bidders
func TestEngine_AutoBidDuel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, repo, notifier := newTestEngine(t, openAuction("auction1", 100, 10, 0))

	x := model.Bidder{UserID: "x"}
	y := model.Bidder{UserID: "y"}

	_, err := engine.PlaceBid(ctx, "auction1", x, nil, dp(200))
	require.NoError(t, err)

	// y's ceiling of 180 is exhausted by x's standing proxy: the duel
	// must settle with x on top at 190, one increment above y's best.
	top, err := engine.PlaceBid(ctx, "auction1", y, nil, dp(180))
	require.NoError(t, err)
	require.Equal(t, "x", top.Bidder.UserID)
	require.True(t, top.Amount.Equal(d(190)), "expected 190, got %s", top.Amount)
	require.True(t, top.Auto)

	// Ledger stays strictly increasing throughout the duel.
	bids, err := repo.BidsFor(ctx, "auction1")
	require.NoError(t, err)
	for i := 1; i < len(bids); i++ {
		require.True(t, bids[i].Amount.GreaterThan(bids[i-1].Amount))
	}

	// y was displaced at least once along the way.
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	displaced := make(map[string]bool)
	for _, b := range notifier.outbid {
		displaced[b.UserID] = true
	}
	require.True(t, displaced["y"])
}

// Test that a manual bid inside a proxy ceiling is immediately countered
func TestEngine_ManualCounteredByProxy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, _, _ := newTestEngine(t, openAuction("auction1", 100, 10, 0))

	_, err := engine.PlaceBid(ctx, "auction1", model.Bidder{UserID: "x"}, nil, dp(300))
	require.NoError(t, err)

	top, err := engine.PlaceBid(ctx, "auction1", model.Bidder{UserID: "y"}, dp(120), nil)
	require.NoError(t, err)
	require.Equal(t, "x", top.Bidder.UserID)
	require.True(t, top.Amount.Equal(d(130)))
	require.True(t, top.Auto)
}

// Test that a manual bid above every ceiling simply stands
func TestEngine_ManualBeatsExhaustedProxy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, _, _ := newTestEngine(t, openAuction("auction1", 100, 10, 0))

	_, err := engine.PlaceBid(ctx, "auction1", model.Bidder{UserID: "x"}, nil, dp(150))
	require.NoError(t, err)

	top, err := engine.PlaceBid(ctx, "auction1", model.Bidder{UserID: "y"}, dp(200), nil)
	require.NoError(t, err)
	require.Equal(t, "y", top.Bidder.UserID)
	require.True(t, top.Amount.Equal(d(200)))
	require.False(t, top.Auto)
}

// Test reserve enforcement on the manual path
func TestEngine_ManualBelowReserve(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, _, _ := newTestEngine(t, openAuction("auction1", 100, 10, 500))

	_, err := engine.PlaceBid(ctx, "auction1", model.Bidder{UserID: "u1"}, dp(120), nil)
	require.ErrorIs(t, err, auctionerrors.ErrBelowReserve)

	top, err := engine.PlaceBid(ctx, "auction1", model.Bidder{UserID: "u1"}, dp(500), nil)
	require.NoError(t, err)
	require.True(t, top.Amount.Equal(d(500)))
}

// Test that bids on an expired auction settle it and are rejected
func TestEngine_LazyCloseOnBid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	auction := openAuction("auction1", 100, 10, 0)
	engine, repo, _ := newTestEngine(t, auction)

	_, err := engine.PlaceBid(ctx, "auction1", model.Bidder{UserID: "u1"}, dp(150), nil)
	require.NoError(t, err)

	// Force expiry without the sweep noticing.
	expired := auction
	expired.EndTime = time.Now().UTC().Add(-time.Minute)
	require.NoError(t, repo.CreateAuction(ctx, &expired))

	_, err = engine.PlaceBid(ctx, "auction1", model.Bidder{UserID: "u2"}, dp(160), nil)
	require.ErrorIs(t, err, auctionerrors.ErrAuctionClosed)

	stored, err := repo.GetAuction(ctx, "auction1")
	require.NoError(t, err)
	require.Equal(t, model.AuctionStatusClosed, stored.Status)
	require.NotNil(t, stored.WinnerID)
	require.Equal(t, "u1", *stored.WinnerID)
}

// Test ListBids ordering: descending amount, insertion breaking ties
func TestEngine_ListBids(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, _, _ := newTestEngine(t, openAuction("auction1", 100, 10, 0))

	_, err := engine.PlaceBid(ctx, "auction1", model.Bidder{UserID: "u1"}, dp(110), nil)
	require.NoError(t, err)
	_, err = engine.PlaceBid(ctx, "auction1", model.Bidder{UserID: "u2"}, dp(130), nil)
	require.NoError(t, err)
	_, err = engine.PlaceBid(ctx, "auction1", model.Bidder{UserID: "u3"}, dp(150), nil)
	require.NoError(t, err)

	bids, err := engine.ListBids(ctx, "auction1")
	require.NoError(t, err)
	require.Len(t, bids, 3)
	require.Equal(t, "u3", bids[0].Bidder.UserID)
	require.Equal(t, "u2", bids[1].Bidder.UserID)
	require.Equal(t, "u1", bids[2].Bidder.UserID)
}

// Test GetTopBid on an auction with no bids
func TestEngine_GetTopBid_NoBids(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, _, _ := newTestEngine(t, openAuction("auction1", 100, 10, 0))

	_, err := engine.GetTopBid(ctx, "auction1")
	require.ErrorIs(t, err, auctionerrors.ErrNoBids)
}

// Property: under concurrent bidding the ledger is strictly increasing
// and the final top bid belongs to the strongest ceiling.
func TestEngine_ConcurrentProxyBids(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, repo, _ := newTestEngine(t, openAuction("auction1", 0, 1, 0))

	bidders := 10
	var wg sync.WaitGroup
	for i := 1; i <= bidders; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			// Ceilings 100, 200, ... 1000; rejections from losing the
			// race are expected and fine.
			_, err := engine.PlaceBid(ctx, "auction1", model.Bidder{UserID: fmt.Sprintf("u%d", i)}, nil, dp(float64(i*100)))
			if err != nil {
				require.ErrorIs(t, err, auctionerrors.ErrMaxBidTooLow)
			}
		}()
	}
	wg.Wait()

	bids, err := repo.BidsFor(ctx, "auction1")
	require.NoError(t, err)
	for i := 1; i < len(bids); i++ {
		require.True(t, bids[i].Amount.GreaterThan(bids[i-1].Amount),
			"ledger out of order at %d: %s then %s", i, bids[i-1].Amount, bids[i].Amount)
	}

	top, err := repo.TopBid(ctx, "auction1")
	require.NoError(t, err)
	require.Equal(t, "u10", top.Bidder.UserID, "strongest ceiling must hold the top bid")
}
