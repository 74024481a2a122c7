package auction

import (
	"testing"
	"time"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func activeAuction(now time.Time) model.Auction {
	return model.Auction{
		AuctionID:     "auction1",
		SellerID:      "seller1",
		StartingPrice: decimal.NewFromInt(100),
		BidIncrement:  decimal.NewFromInt(10),
		CurrentBid:    decimal.NewFromInt(100),
		StartTime:     now.Add(-time.Hour),
		EndTime:       now.Add(time.Hour),
		Status:        model.AuctionActive,
	}
}

// Tests ValidateBid rule ordering and outcomes
func TestValidateBid(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	tests := []struct {
		name          string
		mutate        func(a *model.Auction)
		bidderID      string
		amount        int64
		expectedError error
	}{
		{
			name:     "first_bid_at_starting_plus_increment",
			bidderID: "buyer1",
			amount:   110,
		},
		{
			name:     "first_bid_above_minimum",
			bidderID: "buyer1",
			amount:   150,
		},
		{
			// The first bid too must clear one increment over the starting
			// price: current bid opens at the starting price, so the minimum
			// is max(startingPrice, currentBid+increment) = 110 from the start.
			name:          "first_bid_at_starting_price",
			bidderID:      "buyer1",
			amount:        100,
			expectedError: auctionerrors.ErrBidTooLow,
		},
		{
			name:          "scheduled_auction",
			mutate:        func(a *model.Auction) { a.Status = model.AuctionScheduled },
			bidderID:      "buyer1",
			amount:        150,
			expectedError: auctionerrors.ErrAuctionNotActive,
		},
		{
			name:          "ended_auction",
			mutate:        func(a *model.Auction) { a.Status = model.AuctionEnded },
			bidderID:      "buyer1",
			amount:        150,
			expectedError: auctionerrors.ErrAuctionNotActive,
		},
		{
			name:          "cancelled_auction",
			mutate:        func(a *model.Auction) { a.Status = model.AuctionCancelled },
			bidderID:      "buyer1",
			amount:        150,
			expectedError: auctionerrors.ErrAuctionNotActive,
		},
		{
			// Status still reads ACTIVE but the window already closed: the
			// time check fires even before the status engine reconciles.
			name:          "window_closed_status_stale",
			mutate:        func(a *model.Auction) { a.EndTime = now.Add(-time.Second) },
			bidderID:      "buyer1",
			amount:        150,
			expectedError: auctionerrors.ErrAuctionWindowClosed,
		},
		{
			name:          "window_not_yet_open",
			mutate:        func(a *model.Auction) { a.StartTime = now.Add(time.Minute) },
			bidderID:      "buyer1",
			amount:        150,
			expectedError: auctionerrors.ErrAuctionWindowClosed,
		},
		{
			name:          "self_bid",
			bidderID:      "seller1",
			amount:        150,
			expectedError: auctionerrors.ErrSelfBidForbidden,
		},
		{
			name:          "first_bid_below_starting_price",
			bidderID:      "buyer1",
			amount:        99,
			expectedError: auctionerrors.ErrBidTooLow,
		},
		{
			name: "bid_below_current_plus_increment",
			mutate: func(a *model.Auction) {
				a.CurrentBid = decimal.NewFromInt(110)
				a.BidCount = 1
			},
			bidderID:      "buyer1",
			amount:        115,
			expectedError: auctionerrors.ErrBidTooLow,
		},
		{
			name: "bid_at_current_plus_increment",
			mutate: func(a *model.Auction) {
				a.CurrentBid = decimal.NewFromInt(110)
				a.BidCount = 1
			},
			bidderID: "buyer1",
			amount:   120,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			auction := activeAuction(now)
			if tc.mutate != nil {
				tc.mutate(&auction)
			}

			err := ValidateBid(auction, tc.bidderID, decimal.NewFromInt(tc.amount), now)
			if tc.expectedError == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.expectedError)
		})
	}
}

// A BidTooLow rejection must carry the correct minimum acceptable amount
func TestValidateBid_RejectionCarriesMinimum(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	auction := activeAuction(now)
	err := ValidateBid(auction, "buyer1", decimal.NewFromInt(100), now)
	rejection, ok := auctionerrors.AsBidRejection(err)
	require.True(t, ok)
	require.True(t, rejection.MinimumBid.Equal(decimal.NewFromInt(110)), "first bid minimum is starting price plus one increment")

	auction.CurrentBid = decimal.NewFromInt(110)
	auction.BidCount = 1
	err = ValidateBid(auction, "buyer1", decimal.NewFromInt(100), now)
	rejection, ok = auctionerrors.AsBidRejection(err)
	require.True(t, ok)
	require.True(t, rejection.MinimumBid.Equal(decimal.NewFromInt(120)))
}
