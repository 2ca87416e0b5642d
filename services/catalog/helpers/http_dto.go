package helpers

import (
	"time"

	model "buyme/internal/models"
)

// Request/Response DTOs
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
}

type CreateCategoryRequest struct {
	Name     string  `json:"name" binding:"required"`
	ParentID *string `json:"parent_id,omitempty"`
}

type CreateItemRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id" binding:"required"`
}

type OpenAuctionRequest struct {
	ItemID       string  `json:"item_id" binding:"required"`
	SellerID     string  `json:"seller_id" binding:"required"`
	EndTime      string  `json:"end_time" binding:"required"`
	InitPrice    float64 `json:"init_price"`
	Increment    float64 `json:"increment" binding:"required,gt=0"`
	ReservePrice float64 `json:"reserve_price"`
}

type AuctionResponse struct {
	AuctionID    string   `json:"auction_id"`
	ItemID       string   `json:"item_id"`
	SellerID     string   `json:"seller_id"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	InitPrice    float64  `json:"init_price"`
	Increment    float64  `json:"increment"`
	ReservePrice float64  `json:"reserve_price"`
	Status       string   `json:"status"`
	WinnerID     *string  `json:"winner_id,omitempty"`
	WinningBid   *float64 `json:"winning_bid,omitempty"`
}

type CreateAlertRequest struct {
	UserID   string         `json:"user_id" binding:"required"`
	Criteria map[string]any `json:"criteria" binding:"required"`
}

type RunAlertsResponse struct {
	Matched int `json:"matched"`
}

// ToAuctionResponse converts an auction into its external representation.
func ToAuctionResponse(auction model.Auction) AuctionResponse {
	resp := AuctionResponse{
		AuctionID:    auction.AuctionID,
		ItemID:       auction.ItemID,
		SellerID:     auction.SellerID,
		StartTime:    auction.StartTime.UTC().Format(time.RFC3339),
		EndTime:      auction.EndTime.UTC().Format(time.RFC3339),
		InitPrice:    auction.InitPrice.InexactFloat64(),
		Increment:    auction.Increment.InexactFloat64(),
		ReservePrice: auction.ReservePrice.InexactFloat64(),
		Status:       string(auction.Status),
		WinnerID:     auction.WinnerID,
	}
	if auction.WinningBid != nil {
		winning := auction.WinningBid.InexactFloat64()
		resp.WinningBid = &winning
	}
	return resp
}
