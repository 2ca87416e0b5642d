package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"buyme/internal/auctionerrors"
	"buyme/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, auctionerrors.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, auctionerrors.ErrAuctionClosed):
		return http.StatusConflict, "auction is closed"
	case errors.Is(err, auctionerrors.ErrSelfBid):
		return http.StatusForbidden, "sellers may not bid on their own auctions"
	case errors.Is(err, auctionerrors.ErrAlreadyHighest):
		return http.StatusConflict, "bidder already holds the highest bid"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrBelowReserve):
		return http.StatusConflict, "bid amount below reserve price"
	case errors.Is(err, auctionerrors.ErrMaxBidTooLow):
		return http.StatusConflict, "max bid too low"
	case errors.Is(err, auctionerrors.ErrBidConflict):
		return http.StatusConflict, "bid superseded by a concurrent bid"
	case errors.Is(err, auctionerrors.ErrBusy):
		return http.StatusServiceUnavailable, "auction is busy, retry shortly"
	case errors.Is(err, auctionerrors.ErrNoBids):
		return http.StatusOK, "no bids found for auction"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
