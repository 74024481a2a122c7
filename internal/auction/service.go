package auction

import (
	"errors"
	"fmt"
	"time"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/broadcast"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

// maxBidAttempts bounds the internal retry on a lost conditional-update
// race. Business rejections are never retried.
const maxBidAttempts = 3

// AuctionService implements the auction lifecycle operations: placing bids,
// listing and reading auctions, creating, restarting and cancelling them.
type AuctionService struct {
	store     repository.AuctionStore
	publisher broadcast.Publisher
	clock     func() time.Time
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(store repository.AuctionStore, publisher broadcast.Publisher) *AuctionService {
	return &AuctionService{
		store:     store,
		publisher: publisher,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateAuctionParams carries the fields of a new auction listing
type CreateAuctionParams struct {
	ProductID     string
	SellerID      string
	Title         string
	Category      string
	StartingPrice decimal.Decimal
	ReservePrice  decimal.Decimal
	BidIncrement  decimal.Decimal
	StartTime     time.Time
	EndTime       time.Time
}

// PlaceBid validates and applies a bid against the auction's current state.
// Acceptance and application are atomic: the store's conditional update is
// the serialization point, and a bid that validated against a snapshot made
// stale by a concurrent winner is re-validated against the fresh row, which
// yields a deterministic rejection instead of a silent apply.
func (s *AuctionService) PlaceBid(auctionID, bidderID string, amount decimal.Decimal, isAutomatic bool) (model.Bid, error) {
	if auctionID == "" || bidderID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidBid)
	}
	if !amount.IsPositive() {
		return model.Bid{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}

	for attempt := 0; attempt < maxBidAttempts; attempt++ {
		snapshot, err := s.store.GetAuction(auctionID)
		if err != nil {
			return model.Bid{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
		}

		if err := ValidateBid(snapshot, bidderID, amount, s.clock()); err != nil {
			return model.Bid{}, fmt.Errorf("service: bid rejected for auction %s: %w", auctionID, err)
		}

		bid := model.Bid{
			BidID:       utils.NewBidID(),
			AuctionID:   auctionID,
			BidderID:    bidderID,
			Amount:      amount,
			IsAutomatic: isAutomatic,
			CreatedAt:   s.clock(),
		}

		updated, err := s.store.ApplyBid(bid)
		if errors.Is(err, auctionerrors.ErrBidConflict) {
			// Lost the race; loop re-reads and re-validates against the
			// winner's state.
			continue
		}
		if err != nil {
			return model.Bid{}, fmt.Errorf("service: failed to apply bid for auction %s: %w", auctionID, err)
		}

		bid.Status = model.BidWinning
		s.publisher.Publish(broadcast.NewBidEvent(updated, bid))
		return bid, nil
	}

	return model.Bid{}, fmt.Errorf("service: auction %s is under contention, try again: %w", auctionID, auctionerrors.ErrBidConflict)
}

// MinimumNextBid returns the smallest acceptable bid for an auction, for
// dry-run display
func (s *AuctionService) MinimumNextBid(auctionID string) (decimal.Decimal, error) {
	if auctionID == "" {
		return decimal.Zero, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}
	auction, err := s.store.GetAuction(auctionID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}
	return auction.MinimumNextBid(), nil
}

// ListActiveAuctions returns ACTIVE auctions matching the filter
func (s *AuctionService) ListActiveAuctions(filter repository.AuctionFilter) ([]model.Auction, error) {
	auctions, err := s.store.ListActiveAuctions(filter)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list active auctions: %w", err)
	}
	return auctions, nil
}

// GetAuctionDetail returns one auction together with its bid history ordered
// by amount descending
func (s *AuctionService) GetAuctionDetail(auctionID string) (model.Auction, []model.Bid, error) {
	if auctionID == "" {
		return model.Auction{}, nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}
	auction, err := s.store.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, nil, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}
	bids, err := s.store.GetBidsByAuction(auctionID)
	if err != nil {
		return model.Auction{}, nil, fmt.Errorf("service: failed to load bids for auction %s: %w", auctionID, err)
	}
	return auction, bids, nil
}

// CreateAuction registers a new listing. The auction starts SCHEDULED, or
// immediately ACTIVE when the window has already opened.
func (s *AuctionService) CreateAuction(params CreateAuctionParams) (model.Auction, error) {
	if params.SellerID == "" || params.ProductID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - missing seller or product", auctionerrors.ErrInvalidBid)
	}
	if !params.StartingPrice.IsPositive() || !params.BidIncrement.IsPositive() {
		return model.Auction{}, fmt.Errorf("service: %w - starting price and increment must be positive", auctionerrors.ErrInvalidBid)
	}
	if params.ReservePrice.IsNegative() {
		return model.Auction{}, fmt.Errorf("service: %w - negative reserve price", auctionerrors.ErrInvalidBid)
	}
	if !params.EndTime.After(params.StartTime) {
		return model.Auction{}, fmt.Errorf("service: %w", auctionerrors.ErrInvalidSchedule)
	}

	now := s.clock()
	status := model.AuctionScheduled
	if !params.StartTime.After(now) {
		status = model.AuctionActive
	}

	auction := model.Auction{
		AuctionID:     utils.NewAuctionID(),
		ProductID:     params.ProductID,
		SellerID:      params.SellerID,
		Title:         params.Title,
		Category:      params.Category,
		StartingPrice: params.StartingPrice,
		ReservePrice:  params.ReservePrice,
		BidIncrement:  params.BidIncrement,
		CurrentBid:    params.StartingPrice,
		StartTime:     params.StartTime,
		EndTime:       params.EndTime,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateAuction(auction); err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to create auction: %w", err)
	}

	if status == model.AuctionActive {
		s.publisher.Publish(broadcast.NewAuctionEvent(broadcast.EventAuctionStarted, auction))
		s.publisher.Publish(broadcast.NewAuctionEvent(broadcast.EventAuctionStatusChanged, auction))
	}
	return auction, nil
}

// RestartAuction re-lists an ENDED auction with a fresh bidding window.
// Owner-only; the current bid resets to the starting price and the bid count
// to zero while prior bids stay queryable as history.
func (s *AuctionService) RestartAuction(auctionID, callerID string, startTime, endTime time.Time) (model.Auction, error) {
	if auctionID == "" || callerID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - missing auctionID or callerID", auctionerrors.ErrInvalidBid)
	}
	if !endTime.After(startTime) {
		return model.Auction{}, fmt.Errorf("service: restart of auction %s: %w", auctionID, auctionerrors.ErrInvalidSchedule)
	}

	auction, err := s.store.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}
	if auction.SellerID != callerID {
		return model.Auction{}, fmt.Errorf("service: restart of auction %s: %w", auctionID, auctionerrors.ErrNotOwner)
	}
	if auction.Status != model.AuctionEnded {
		return model.Auction{}, fmt.Errorf("service: restart of auction %s in status %s: %w", auctionID, auction.Status, auctionerrors.ErrRestartNotAllowed)
	}

	status := model.AuctionScheduled
	if !startTime.After(s.clock()) {
		status = model.AuctionActive
	}

	restarted, err := s.store.ResetForRestart(auctionID, startTime, endTime, status)
	if errors.Is(err, auctionerrors.ErrStaleTransition) {
		// Someone else restarted it between our status check and the
		// conditional reset.
		return model.Auction{}, fmt.Errorf("service: restart of auction %s: %w", auctionID, auctionerrors.ErrRestartNotAllowed)
	}
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to restart auction %s: %w", auctionID, err)
	}

	if status == model.AuctionActive {
		s.publisher.Publish(broadcast.NewAuctionEvent(broadcast.EventAuctionStarted, restarted))
	}
	s.publisher.Publish(broadcast.NewAuctionEvent(broadcast.EventAuctionStatusChanged, restarted))
	return restarted, nil
}

// CancelAuction moves a SCHEDULED or ACTIVE auction to CANCELLED. Owner-only.
func (s *AuctionService) CancelAuction(auctionID, callerID string) (model.Auction, error) {
	if auctionID == "" || callerID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - missing auctionID or callerID", auctionerrors.ErrInvalidBid)
	}

	auction, err := s.store.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}
	if auction.SellerID != callerID {
		return model.Auction{}, fmt.Errorf("service: cancel of auction %s: %w", auctionID, auctionerrors.ErrNotOwner)
	}
	if auction.Status != model.AuctionScheduled && auction.Status != model.AuctionActive {
		return model.Auction{}, fmt.Errorf("service: cancel of auction %s in status %s: %w", auctionID, auction.Status, auctionerrors.ErrCancelNotAllowed)
	}

	cancelled, err := s.store.TransitionStatus(auctionID, auction.Status, model.AuctionCancelled)
	if errors.Is(err, auctionerrors.ErrStaleTransition) {
		return model.Auction{}, fmt.Errorf("service: cancel of auction %s: %w", auctionID, auctionerrors.ErrCancelNotAllowed)
	}
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to cancel auction %s: %w", auctionID, err)
	}

	s.publisher.Publish(broadcast.NewAuctionEvent(broadcast.EventAuctionStatusChanged, cancelled))
	return cancelled, nil
}
