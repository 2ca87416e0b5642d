package helpers

import (
	"time"

	model "buyme/internal/models"
)

// Request/Response DTOs
type PlaceBidRequest struct {
	UserID    string   `json:"user_id" binding:"required"`
	Amount    *float64 `json:"amount,omitempty"`
	MaxBid    *float64 `json:"max_bid,omitempty"`
	Anonymous bool     `json:"anonymous"`
}

type BidResponse struct {
	BidID     int64    `json:"bid_id"`
	AuctionID string   `json:"auction_id"`
	Bidder    string   `json:"bidder"`
	UserID    string   `json:"user_id,omitempty"`
	Amount    float64  `json:"amount"`
	MaxBid    *float64 `json:"max_bid,omitempty"`
	Auto      bool     `json:"auto"`
	CreatedAt string   `json:"created_at"`
}

type SnapshotResponse struct {
	AuctionID  string   `json:"auction_id"`
	Status     string   `json:"status"`
	WinnerID   *string  `json:"winner_id,omitempty"`
	WinningBid *float64 `json:"winning_bid,omitempty"`
	EndTime    string   `json:"end_time"`
}

type SweepResponse struct {
	Closed int `json:"closed"`
}

// ToBidResponse converts a ledger bid into its external representation.
// The private max_bid is included only when the caller owns the bid;
// anonymous bidders have their user id masked.
func ToBidResponse(bid model.Bid, includeMax bool) BidResponse {
	resp := BidResponse{
		BidID:     bid.BidID,
		AuctionID: bid.AuctionID,
		Bidder:    bid.Bidder.Label(bid.Bidder.UserID),
		Amount:    bid.Amount.InexactFloat64(),
		Auto:      bid.Auto,
		CreatedAt: bid.CreatedAt.UTC().Format(time.RFC3339),
	}
	if !bid.Bidder.Anonymous {
		resp.UserID = bid.Bidder.UserID
	}
	if includeMax && bid.MaxBid != nil {
		max := bid.MaxBid.InexactFloat64()
		resp.MaxBid = &max
	}
	return resp
}

// ToSnapshotResponse converts a settled auction snapshot for the API.
func ToSnapshotResponse(snap model.AuctionSnapshot) SnapshotResponse {
	resp := SnapshotResponse{
		AuctionID: snap.AuctionID,
		Status:    string(snap.Status),
		WinnerID:  snap.WinnerID,
		EndTime:   snap.EndTime.UTC().Format(time.RFC3339),
	}
	if snap.WinningBid != nil {
		winning := snap.WinningBid.InexactFloat64()
		resp.WinningBid = &winning
	}
	return resp
}
