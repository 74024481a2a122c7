package auctionerrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrNoBids          = errors.New("no bids found for auction")
	ErrBidConflict     = errors.New("bid lost conditional update race")
	ErrStaleTransition = errors.New("auction already transitioned")
)

// business rejection errors, expected outcomes and never logged as errors
var (
	ErrInvalidBid          = errors.New("invalid bid")
	ErrAuctionNotActive    = errors.New("auction is not active")
	ErrAuctionWindowClosed = errors.New("auction bidding window is closed")
	ErrSelfBidForbidden    = errors.New("seller cannot bid on own auction")
	ErrBidTooLow           = errors.New("bid amount too low")
	ErrRestartNotAllowed   = errors.New("auction cannot be restarted")
	ErrCancelNotAllowed    = errors.New("auction cannot be cancelled")
	ErrNotOwner            = errors.New("caller does not own this auction")
	ErrInvalidSchedule     = errors.New("auction end time must be after start time")
)

// BidRejection wraps a bid business rejection with the minimum amount the
// caller could retry with. Unwrap exposes the sentinel so errors.Is keeps
// working through the usual MapErrorToHTTP switch.
type BidRejection struct {
	Reason     error
	MinimumBid decimal.Decimal
}

func (r *BidRejection) Error() string {
	return fmt.Sprintf("%v (minimum acceptable bid: %s)", r.Reason, r.MinimumBid.StringFixed(2))
}

func (r *BidRejection) Unwrap() error {
	return r.Reason
}

// RejectBid builds a BidRejection for the given sentinel and minimum amount
func RejectBid(reason error, minimum decimal.Decimal) *BidRejection {
	return &BidRejection{Reason: reason, MinimumBid: minimum}
}

// AsBidRejection extracts a BidRejection from an error chain, if present
func AsBidRejection(err error) (*BidRejection, bool) {
	var rej *BidRejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
