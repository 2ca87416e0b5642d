package repository

import (
	"context"
	"time"

	model "buyme/internal/models"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// MarketplaceDB defines the storage interface for the auction marketplace.
// Bid rows are append-only; auction status/winner fields are written only
// through MarkClosed. Serialization of concurrent work on a single auction
// is the caller's responsibility (see the auction engine's keyed lock);
// AppendBid still rejects stale appends with ErrBidConflict as a guard.
type MarketplaceDB interface {
	// Users
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, userID string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)

	// Categories
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, categoryID string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)

	// Items
	CreateItem(ctx context.Context, item *model.Item) error
	GetItem(ctx context.Context, itemID string) (*model.Item, error)
	ListItems(ctx context.Context) ([]model.Item, error)

	// Auctions
	CreateAuction(ctx context.Context, auction *model.Auction) error
	GetAuction(ctx context.Context, auctionID string) (*model.Auction, error)
	ListAuctions(ctx context.Context) ([]model.Auction, error)
	// ExpiredOpenAuctions returns every auction still open whose end time
	// is at or before now.
	ExpiredOpenAuctions(ctx context.Context, now time.Time) ([]model.Auction, error)
	// MarkClosed atomically transitions an open auction to closed with the
	// given settlement. Closing an already-closed auction is a no-op.
	MarkClosed(ctx context.Context, auctionID string, winnerID *string, winningBid *decimal.Decimal) error

	// Bid ledger
	// AppendBid assigns the bid's insertion-ordered BidID and records it.
	// Returns ErrBidConflict when the ledger's top amount already meets or
	// exceeds the new bid's amount.
	AppendBid(ctx context.Context, bid *model.Bid) error
	// TopBid returns the highest bid, tie-broken by earliest insertion.
	// Returns ErrNoBids when the auction has no bids.
	TopBid(ctx context.Context, auctionID string) (*model.Bid, error)
	// BidsFor returns the auction's bids in insertion order. An auction
	// with no bids yields an empty slice, not an error.
	BidsFor(ctx context.Context, auctionID string) ([]model.Bid, error)

	// Alerts
	CreateAlert(ctx context.Context, alert *model.Alert) error
	ListAlertsForUser(ctx context.Context, userID string) ([]model.Alert, error)
	ListAlerts(ctx context.Context) ([]model.Alert, error)
}
