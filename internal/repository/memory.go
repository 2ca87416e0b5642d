package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"buyme/internal/auctionerrors"
	model "buyme/internal/models"

	"github.com/shopspring/decimal"
)

// MemoryRepo is a concurrency-safe in-memory implementation of
// MarketplaceDB, used for tests and single-node deployments without a
// database.
type MemoryRepo struct {
	mu         sync.RWMutex
	users      map[string]model.User     // key: userID
	categories map[string]model.Category // key: categoryID
	items      map[string]model.Item     // key: itemID
	auctions   map[string]model.Auction  // key: auctionID
	bids       map[string][]model.Bid    // key: auctionID -> bids in insertion order
	alerts     map[string]model.Alert    // key: alertID
	bidSeq     int64
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:      make(map[string]model.User),
		categories: make(map[string]model.Category),
		items:      make(map[string]model.Item),
		auctions:   make(map[string]model.Auction),
		bids:       make(map[string][]model.Bid),
		alerts:     make(map[string]model.Alert),
	}
}

// CreateUser stores a new user, rejecting duplicate usernames
func (r *MemoryRepo) CreateUser(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return fmt.Errorf("create user %q: %w", user.Username, auctionerrors.ErrDuplicate)
		}
	}
	r.users[user.UserID] = *user
	return nil
}

// GetUser returns a user by id
func (r *MemoryRepo) GetUser(_ context.Context, userID string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return &user, nil
}

// ListUsers returns all users
func (r *MemoryRepo) ListUsers(_ context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	return users, nil
}

// CreateCategory stores a new category, rejecting duplicate (name, parent) pairs
func (r *MemoryRepo) CreateCategory(_ context.Context, category *model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if category.ParentID != nil {
		if _, ok := r.categories[*category.ParentID]; !ok {
			return fmt.Errorf("create category %q: parent: %w", category.Name, auctionerrors.ErrCategoryNotFound)
		}
	}
	for _, c := range r.categories {
		if c.Name == category.Name && equalStringPtr(c.ParentID, category.ParentID) {
			return fmt.Errorf("create category %q: %w", category.Name, auctionerrors.ErrDuplicate)
		}
	}
	r.categories[category.CategoryID] = *category
	return nil
}

// GetCategory returns a category by id
func (r *MemoryRepo) GetCategory(_ context.Context, categoryID string) (*model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	category, ok := r.categories[categoryID]
	if !ok {
		return nil, fmt.Errorf("get category %s: %w", categoryID, auctionerrors.ErrCategoryNotFound)
	}
	return &category, nil
}

// ListCategories returns all categories
func (r *MemoryRepo) ListCategories(_ context.Context) ([]model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	categories := make([]model.Category, 0, len(r.categories))
	for _, c := range r.categories {
		categories = append(categories, c)
	}
	return categories, nil
}

// CreateItem stores a new item under an existing category
func (r *MemoryRepo) CreateItem(_ context.Context, item *model.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[item.CategoryID]; !ok {
		return fmt.Errorf("create item %q: %w", item.Title, auctionerrors.ErrCategoryNotFound)
	}
	r.items[item.ItemID] = *item
	return nil
}

// GetItem returns an item by id
func (r *MemoryRepo) GetItem(_ context.Context, itemID string) (*model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[itemID]
	if !ok {
		return nil, fmt.Errorf("get item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	return &item, nil
}

// ListItems returns all items
func (r *MemoryRepo) ListItems(_ context.Context) ([]model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]model.Item, 0, len(r.items))
	for _, i := range r.items {
		items = append(items, i)
	}
	return items, nil
}

// CreateAuction stores a new auction for an existing item
func (r *MemoryRepo) CreateAuction(_ context.Context, auction *model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[auction.ItemID]; !ok {
		return fmt.Errorf("create auction for item %s: %w", auction.ItemID, auctionerrors.ErrItemNotFound)
	}
	r.auctions[auction.AuctionID] = *auction
	return nil
}

// GetAuction returns an auction by id
func (r *MemoryRepo) GetAuction(_ context.Context, auctionID string) (*model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return nil, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return &auction, nil
}

// ListAuctions returns all auctions
func (r *MemoryRepo) ListAuctions(_ context.Context) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auctions := make([]model.Auction, 0, len(r.auctions))
	for _, a := range r.auctions {
		auctions = append(auctions, a)
	}
	return auctions, nil
}

// ExpiredOpenAuctions returns open auctions whose end time has passed
func (r *MemoryRepo) ExpiredOpenAuctions(_ context.Context, now time.Time) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var expired []model.Auction
	for _, a := range r.auctions {
		if a.Status == model.AuctionStatusOpen && !a.EndTime.After(now) {
			expired = append(expired, a)
		}
	}
	return expired, nil
}

// MarkClosed transitions an open auction to closed with its settlement.
// Already-closed auctions are left untouched.
func (r *MemoryRepo) MarkClosed(_ context.Context, auctionID string, winnerID *string, winningBid *decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return fmt.Errorf("close auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if auction.Status == model.AuctionStatusClosed {
		return nil
	}

	auction.Status = model.AuctionStatusClosed
	auction.WinnerID = winnerID
	auction.WinningBid = winningBid
	auction.UpdatedAt = time.Now().UTC()
	r.auctions[auctionID] = auction
	return nil
}

// AppendBid assigns the next insertion-ordered id and records the bid
func (r *MemoryRepo) AppendBid(_ context.Context, bid *model.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[bid.AuctionID]; !ok {
		return fmt.Errorf("append bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}

	if top := topBidLocked(r.bids[bid.AuctionID]); top != nil && !bid.Amount.GreaterThan(top.Amount) {
		return fmt.Errorf("append bid for auction %s at %s (top %s): %w",
			bid.AuctionID, bid.Amount, top.Amount, auctionerrors.ErrBidConflict)
	}

	r.bidSeq++
	bid.BidID = r.bidSeq
	r.bids[bid.AuctionID] = append(r.bids[bid.AuctionID], *bid)
	return nil
}

// TopBid returns the highest bid for an auction, earliest insertion winning ties
func (r *MemoryRepo) TopBid(_ context.Context, auctionID string) (*model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	top := topBidLocked(r.bids[auctionID])
	if top == nil {
		return nil, fmt.Errorf("top bid for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}
	bid := *top
	return &bid, nil
}

// BidsFor returns the auction's bids in insertion order
func (r *MemoryRepo) BidsFor(_ context.Context, auctionID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]model.Bid(nil), r.bids[auctionID]...), nil
}

// CreateAlert stores a saved-search alert
func (r *MemoryRepo) CreateAlert(_ context.Context, alert *model.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[alert.UserID]; !ok {
		return fmt.Errorf("create alert for user %s: %w", alert.UserID, auctionerrors.ErrUserNotFound)
	}
	r.alerts[alert.AlertID] = *alert
	return nil
}

// ListAlertsForUser returns all alerts created by one user
func (r *MemoryRepo) ListAlertsForUser(_ context.Context, userID string) ([]model.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var alerts []model.Alert
	for _, a := range r.alerts {
		if a.UserID == userID {
			alerts = append(alerts, a)
		}
	}
	return alerts, nil
}

// ListAlerts returns every stored alert
func (r *MemoryRepo) ListAlerts(_ context.Context) ([]model.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alerts := make([]model.Alert, 0, len(r.alerts))
	for _, a := range r.alerts {
		alerts = append(alerts, a)
	}
	return alerts, nil
}

// topBidLocked scans for the highest amount; among equal amounts the
// earlier insertion (lower BidID) stands. Caller must hold r.mu.
func topBidLocked(bids []model.Bid) *model.Bid {
	var top *model.Bid
	for i := range bids {
		if top == nil || bids[i].Amount.GreaterThan(top.Amount) {
			top = &bids[i]
		}
	}
	return top
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
