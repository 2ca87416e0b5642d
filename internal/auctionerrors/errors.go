package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrItemNotFound     = errors.New("item not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrNoBids           = errors.New("no bids found for auction")
	ErrDuplicate        = errors.New("already exists")

	// ErrBidConflict means a concurrent append advanced the top bid past
	// the amount this bid was computed against; recompute and retry.
	ErrBidConflict = errors.New("bid conflicts with a newer top bid")
)

// Business logic errors
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrAuctionClosed  = errors.New("auction is closed")
	ErrSelfBid        = errors.New("seller cannot bid on their own auction")
	ErrAlreadyHighest = errors.New("bidder already holds the top bid")
	ErrBidTooLow      = errors.New("bid amount too low")
	ErrBelowReserve   = errors.New("bid below reserve price")
	ErrMaxBidTooLow   = errors.New("max bid does not exceed current top bid")
)

// Concurrency errors
var (
	// ErrBusy means the per-auction lock could not be acquired in time;
	// the request may be retried.
	ErrBusy = errors.New("auction is busy, try again")
)
