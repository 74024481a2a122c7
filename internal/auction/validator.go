package auction

import (
	"time"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"

	"github.com/shopspring/decimal"
)

// ValidateBid decides whether a proposed bid is acceptable against a
// point-in-time auction snapshot. Pure function, no side effects: the
// processor re-runs it after losing a conditional-update race, and the
// minimum-bid endpoint reuses it for dry-run display.
//
// Rules are checked in order, first failure wins:
//  1. auction status must be ACTIVE
//  2. now must fall within [start, end) regardless of the cached status,
//     which defends the boundary race where the window closed but the
//     status engine has not yet reconciled
//  3. the seller cannot bid on their own auction
//  4. the amount must reach the minimum next bid; the rejection carries
//     that minimum so the client can retry
func ValidateBid(auction model.Auction, bidderID string, amount decimal.Decimal, now time.Time) error {
	if auction.Status != model.AuctionActive {
		return auctionerrors.ErrAuctionNotActive
	}
	if !auction.WindowOpen(now) {
		return auctionerrors.ErrAuctionWindowClosed
	}
	if bidderID == auction.SellerID {
		return auctionerrors.ErrSelfBidForbidden
	}
	if minimum := auction.MinimumNextBid(); amount.LessThan(minimum) {
		return auctionerrors.RejectBid(auctionerrors.ErrBidTooLow, minimum)
	}
	return nil
}
