package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"buyme/internal/auctionerrors"
	model "buyme/internal/models"
	"buyme/services/auction/helpers"
	"buyme/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=auction_handler.go -destination=mock_service.go -package=handler

type BiddingEngineInterface interface {
	PlaceBid(ctx context.Context, auctionID string, bidder model.Bidder, amount, maxBid *decimal.Decimal) (*model.Bid, error)
	GetTopBid(ctx context.Context, auctionID string) (*model.Bid, error)
	ListBids(ctx context.Context, auctionID string) ([]model.Bid, error)
}

type LifecycleInterface interface {
	CloseAuction(ctx context.Context, auctionID string) (*model.AuctionSnapshot, error)
	SweepExpiredAuctions(ctx context.Context, now time.Time) (int, error)
}

type AuctionHandler struct {
	engine    BiddingEngineInterface
	lifecycle LifecycleInterface
}

func NewAuctionHandler(engine BiddingEngineInterface, lifecycle LifecycleInterface) *AuctionHandler {
	return &AuctionHandler{engine: engine, lifecycle: lifecycle}
}

// PlaceBidHandler handles POST /auctions/:auction_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	var amount, maxBid *decimal.Decimal
	if req.Amount != nil {
		a := decimal.NewFromFloat(*req.Amount)
		amount = &a
	}
	if req.MaxBid != nil {
		m := decimal.NewFromFloat(*req.MaxBid)
		maxBid = &m
	}

	bidder := model.Bidder{UserID: req.UserID, Anonymous: req.Anonymous}
	bid, err := h.engine.PlaceBid(c.Request.Context(), auctionID, bidder, amount, maxBid)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("PlaceBidHandler: failed to place bid", map[string]any{
			"handler":    "PlaceBidHandler",
			"auction_id": auctionID,
			"user_id":    req.UserID,
			"error":      err.Error(),
		})
		return
	}

	resp := helpers.ToBidResponse(*bid, true)
	utils.JSONResponse(c, http.StatusCreated, resp, "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": auctionID,
		"user_id":    req.UserID,
		"amount":     bid.Amount.String(),
	})
}

// ListBidsHandler handles GET /auctions/:auction_id/bids
func (h *AuctionHandler) ListBidsHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.engine.ListBids(c.Request.Context(), auctionID)
	if err != nil && !errors.Is(err, auctionerrors.ErrNoBids) {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ListBidsHandler: error retrieving bids", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, bid := range bids {
		resp = append(resp, helpers.ToBidResponse(bid, false))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
	helpers.LogSuccess("ListBidsHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(resp),
	})
}

// GetTopBidHandler handles GET /auctions/:auction_id/top
func (h *AuctionHandler) GetTopBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bid, err := h.engine.GetTopBid(c.Request.Context(), auctionID)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrNoBids) {
			utils.JSONError(c, http.StatusNotFound, err, "no bids placed yet")
			utils.Info("GetTopBidHandler: no bids placed yet", map[string]any{"auction_id": auctionID})
			return
		}
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetTopBidHandler: top bid error", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	resp := helpers.ToBidResponse(*bid, false)
	utils.JSONResponse(c, http.StatusOK, resp, "top bid retrieved successfully")
	helpers.LogSuccess("GetTopBidHandler", "top bid retrieved successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": auctionID,
		"amount":     bid.Amount.String(),
	})
}

// CloseAuctionHandler handles POST /auctions/:auction_id/close
//
// Closing is idempotent; closing an already closed auction returns the
// recorded settlement.
func (h *AuctionHandler) CloseAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	snap, err := h.lifecycle.CloseAuction(c.Request.Context(), auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("CloseAuctionHandler: failed to close auction", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return
	}

	resp := helpers.ToSnapshotResponse(*snap)
	utils.JSONResponse(c, http.StatusOK, resp, "auction closed successfully")
	helpers.LogSuccess("CloseAuctionHandler", "auction closed successfully", map[string]any{
		"auction_id": auctionID,
		"winner_id":  snap.WinnerID,
	})
}

// SweepHandler handles POST /admin/sweep
func (h *AuctionHandler) SweepHandler(c *gin.Context) {
	closed, err := h.lifecycle.SweepExpiredAuctions(c.Request.Context(), time.Now())
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("SweepHandler: sweep failed", map[string]any{"error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.SweepResponse{Closed: closed}, "sweep completed successfully")
	helpers.LogSuccess("SweepHandler", "sweep completed successfully", map[string]any{"closed": closed})
}
