package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// User represents a participant in the marketplace
type User struct {
	bun.BaseModel `bun:"table:users,alias:u" json:"-"`

	UserID    string    `bun:"user_id,pk" json:"user_id"`
	Username  string    `bun:"username,notnull,unique" json:"username"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

// Category is a node in the (optionally hierarchical) category tree
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:c" json:"-"`

	CategoryID string    `bun:"category_id,pk" json:"category_id"`
	Name       string    `bun:"name,notnull" json:"name"`
	ParentID   *string   `bun:"parent_id" json:"parent_id,omitempty"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at"`
}

// Item represents a listed good that auctions can be opened on
type Item struct {
	bun.BaseModel `bun:"table:items,alias:i" json:"-"`

	ItemID      string    `bun:"item_id,pk" json:"item_id"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description" json:"description"`
	CategoryID  string    `bun:"category_id,notnull" json:"category_id"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
}

// Bidder is a tagged bidder identity. Comparisons always use the stable
// UserID; Anonymous only controls how the bidder is rendered externally.
type Bidder struct {
	UserID    string `bun:"user_id" json:"user_id"`
	Anonymous bool   `bun:"anonymous" json:"anonymous"`
}

// Equal reports whether two bidders are the same user, regardless of
// how either chose to be displayed.
func (b Bidder) Equal(other Bidder) bool {
	return b.UserID == other.UserID
}

// Label returns the externally visible name for the bidder. Anonymous
// bidders are masked with a short suffix of their id so distinct
// anonymous bidders remain distinguishable in bid listings.
func (b Bidder) Label(username string) string {
	if b.Anonymous {
		suffix := b.UserID
		if len(suffix) > 8 {
			suffix = suffix[:8]
		}
		return fmt.Sprintf("anonymous-%s", suffix)
	}
	return username
}

// AuctionStatus is the lifecycle state of an auction
type AuctionStatus string

const (
	AuctionStatusOpen   AuctionStatus = "open"
	AuctionStatusClosed AuctionStatus = "closed"
)

// Auction represents a timed English auction on an item
type Auction struct {
	bun.BaseModel `bun:"table:auctions,alias:a" json:"-"`

	AuctionID    string           `bun:"auction_id,pk" json:"auction_id"`
	ItemID       string           `bun:"item_id,notnull" json:"item_id"`
	SellerID     string           `bun:"seller_id,notnull" json:"seller_id"`
	StartTime    time.Time        `bun:"start_time,notnull" json:"start_time"`
	EndTime      time.Time        `bun:"end_time,notnull" json:"end_time"`
	InitPrice    decimal.Decimal  `bun:"init_price,notnull" json:"init_price"`
	Increment    decimal.Decimal  `bun:"increment,notnull" json:"increment"`
	ReservePrice decimal.Decimal  `bun:"reserve_price,notnull" json:"reserve_price"`
	Status       AuctionStatus    `bun:"status,notnull" json:"status"`
	WinnerID     *string          `bun:"winner_id" json:"winner_id,omitempty"`
	WinningBid   *decimal.Decimal `bun:"winning_bid" json:"winning_bid,omitempty"`
	CreatedAt    time.Time        `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt    time.Time        `bun:"updated_at,notnull" json:"updated_at"`
}

// Expired reports whether the auction's end time has passed at now.
func (a *Auction) Expired(now time.Time) bool {
	return !now.Before(a.EndTime)
}

// Bid is one entry in an auction's append-only bid ledger. BidID is
// assigned by the store and is strictly increasing in insertion order;
// it is the tie-break between equal amounts.
type Bid struct {
	bun.BaseModel `bun:"table:bids,alias:b" json:"-"`

	BidID     int64            `bun:"bid_id,pk,autoincrement" json:"bid_id"`
	AuctionID string           `bun:"auction_id,notnull" json:"auction_id"`
	Bidder    Bidder           `bun:"embed:bidder_" json:"bidder"`
	Amount    decimal.Decimal  `bun:"amount,notnull" json:"amount"`
	MaxBid    *decimal.Decimal `bun:"max_bid" json:"max_bid,omitempty"`
	Auto      bool             `bun:"auto,notnull" json:"auto"`
	CreatedAt time.Time        `bun:"created_at,notnull" json:"created_at"`
}

// Ceiling returns the highest amount this bid authorizes on the
// bidder's behalf. Manual and automatic bids carry no private max_bid,
// so their ceiling is the observable amount itself.
func (b Bid) Ceiling() decimal.Decimal {
	if b.MaxBid != nil {
		return *b.MaxBid
	}
	return b.Amount
}

// AuctionSnapshot is the settled view of an auction returned by the
// lifecycle manager.
type AuctionSnapshot struct {
	AuctionID  string           `json:"auction_id"`
	Status     AuctionStatus    `json:"status"`
	WinnerID   *string          `json:"winner_id,omitempty"`
	WinningBid *decimal.Decimal `json:"winning_bid,omitempty"`
	EndTime    time.Time        `json:"end_time"`
}

// AlertCriteria is the allow-listed, typed form of a saved-search
// alert. Unknown criteria keys are rejected before one of these is
// ever constructed.
type AlertCriteria struct {
	CategoryID *string          `json:"category_id,omitempty"`
	MinPrice   *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice   *decimal.Decimal `json:"max_price,omitempty"`
}

// Alert is a user's saved search over open auctions
type Alert struct {
	bun.BaseModel `bun:"table:alerts,alias:al" json:"-"`

	AlertID   string        `bun:"alert_id,pk" json:"alert_id"`
	UserID    string        `bun:"user_id,notnull" json:"user_id"`
	Criteria  AlertCriteria `bun:"criteria,type:jsonb" json:"criteria"`
	CreatedAt time.Time     `bun:"created_at,notnull" json:"created_at"`
}
