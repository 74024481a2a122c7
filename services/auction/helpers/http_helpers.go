package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auction-engine/internal/auctionerrors"
	"auction-engine/utils"

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
	case errors.Is(err, auctionerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid request details"
	case errors.Is(err, auctionerrors.ErrInvalidSchedule):
		return http.StatusBadRequest, "end time must be after start time"
	case errors.Is(err, auctionerrors.ErrSelfBidForbidden):
		return http.StatusForbidden, "seller cannot bid on own auction"
	case errors.Is(err, auctionerrors.ErrNotOwner):
		return http.StatusForbidden, "caller does not own this auction"
	case errors.Is(err, auctionerrors.ErrAuctionNotActive):
		return http.StatusConflict, "auction is not active"
	case errors.Is(err, auctionerrors.ErrAuctionWindowClosed):
		return http.StatusConflict, "auction bidding window is closed"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrRestartNotAllowed):
		return http.StatusConflict, "auction cannot be restarted"
	case errors.Is(err, auctionerrors.ErrCancelNotAllowed):
		return http.StatusConflict, "auction cannot be cancelled"
	case errors.Is(err, auctionerrors.ErrBidConflict):
		return http.StatusConflict, "auction is under contention, try again"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RejectionCode maps a business rejection to its machine-readable code, or ""
// when the error is not a business rejection.
func RejectionCode(err error) string {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotActive):
		return "AuctionNotActive"
	case errors.Is(err, auctionerrors.ErrAuctionWindowClosed):
		return "AuctionWindowClosed"
	case errors.Is(err, auctionerrors.ErrSelfBidForbidden):
		return "SelfBidForbidden"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return "BidTooLow"
	case errors.Is(err, auctionerrors.ErrRestartNotAllowed):
		return "RestartNotAllowed"
	case errors.Is(err, auctionerrors.ErrCancelNotAllowed):
		return "CancelNotAllowed"
	default:
		return ""
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
