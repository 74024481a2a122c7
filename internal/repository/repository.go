package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"

	"github.com/shopspring/decimal"
)

// AuctionFilter narrows and pages the active-auction listing
type AuctionFilter struct {
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Limit    int
	Offset   int
}

// AuctionStore defines the auction/bid storage contract. Every mutating
// operation is a conditional write keyed on the expected prior state, so
// concurrent callers race safely: the loser observes its precondition false
// and gets ErrBidConflict / ErrStaleTransition instead of clobbering state.
type AuctionStore interface {
	CreateAuction(auction model.Auction) error
	GetAuction(auctionID string) (model.Auction, error)
	ListActiveAuctions(filter AuctionFilter) ([]model.Auction, error)
	ListDueAuctions(status model.AuctionStatus, due time.Time, limit int) ([]model.Auction, error)

	// ApplyBid atomically re-checks the minimum-bid precondition against the
	// live row, inserts the bid as WINNING, flips the previous WINNING bid to
	// OUTBID and advances current_bid/bid_count. Returns the updated auction.
	ApplyBid(bid model.Bid) (model.Auction, error)

	// TransitionStatus moves the auction from the expected status to the next
	// one. Zero-row matches surface as ErrStaleTransition, which makes the
	// scheduler idempotent across crashed or overlapping scans.
	TransitionStatus(auctionID string, from, to model.AuctionStatus) (model.Auction, error)

	// ResetForRestart re-lists an ENDED auction with a fresh window, resetting
	// current_bid to the starting price and bid_count to zero. Prior bids are
	// kept as history.
	ResetForRestart(auctionID string, startTime, endTime time.Time, to model.AuctionStatus) (model.Auction, error)

	GetBidsByAuction(auctionID string) ([]model.Bid, error)
}

// MemoryStore is a concurrency-safe in-memory implementation of AuctionStore,
// used by tests and DSN-less development runs. A single mutex serializes the
// validate-then-apply section, mirroring the row-level conditional updates of
// the SQL store.
type MemoryStore struct {
	mu       sync.RWMutex
	auctions map[string]model.Auction
	bids     map[string][]model.Bid // key: auctionID
}

// NewMemoryStore creates a new in-memory store instance
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions: make(map[string]model.Auction),
		bids:     make(map[string][]model.Bid),
	}
}

// CreateAuction registers a new auction listing
func (s *MemoryStore) CreateAuction(auction model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[auction.AuctionID]; ok {
		return fmt.Errorf("create auction %s: already exists", auction.AuctionID)
	}
	s.auctions[auction.AuctionID] = auction
	return nil
}

// GetAuction returns a point-in-time snapshot of one auction
func (s *MemoryStore) GetAuction(auctionID string) (model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auction, ok := s.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return auction, nil
}

// ListActiveAuctions returns ACTIVE auctions matching the filter, newest first
func (s *MemoryStore) ListActiveAuctions(filter AuctionFilter) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]model.Auction, 0)
	for _, a := range s.auctions {
		if a.Status != model.AuctionActive {
			continue
		}
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		if filter.MinPrice != nil && a.CurrentBid.LessThan(*filter.MinPrice) {
			continue
		}
		if filter.MaxPrice != nil && a.CurrentBid.GreaterThan(*filter.MaxPrice) {
			continue
		}
		matched = append(matched, a)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []model.Auction{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// ListDueAuctions returns auctions in the given status whose boundary
// (start time for SCHEDULED, end time for ACTIVE) has been crossed.
func (s *MemoryStore) ListDueAuctions(status model.AuctionStatus, due time.Time, limit int) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]model.Auction, 0)
	for _, a := range s.auctions {
		if a.Status != status {
			continue
		}
		boundary := a.StartTime
		if status == model.AuctionActive {
			boundary = a.EndTime
		}
		if boundary.After(due) {
			continue
		}
		matched = append(matched, a)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].AuctionID < matched[j].AuctionID
	})
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

// ApplyBid performs the serialized validate-then-apply section for one bid
func (s *MemoryStore) ApplyBid(bid model.Bid) (model.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	auction, ok := s.auctions[bid.AuctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("apply bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}

	if !bidPreconditionHolds(auction, bid.Amount) {
		return model.Auction{}, fmt.Errorf("apply bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrBidConflict)
	}

	for i := range s.bids[bid.AuctionID] {
		if s.bids[bid.AuctionID][i].Status == model.BidWinning {
			s.bids[bid.AuctionID][i].Status = model.BidOutbid
		}
	}

	bid.Status = model.BidWinning
	s.bids[bid.AuctionID] = append(s.bids[bid.AuctionID], bid)

	auction.CurrentBid = bid.Amount
	auction.BidCount++
	auction.UpdatedAt = time.Now().UTC()
	s.auctions[bid.AuctionID] = auction

	return auction, nil
}

// bidPreconditionHolds is the in-memory twin of the SQL store's conditional
// UPDATE WHERE-clause: status ACTIVE and the amount at or above
// max(startingPrice, currentBid + increment).
func bidPreconditionHolds(auction model.Auction, amount decimal.Decimal) bool {
	if auction.Status != model.AuctionActive {
		return false
	}
	return amount.GreaterThanOrEqual(auction.MinimumNextBid())
}

// TransitionStatus applies a conditional status transition
func (s *MemoryStore) TransitionStatus(auctionID string, from, to model.AuctionStatus) (model.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	auction, ok := s.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("transition auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if auction.Status != from {
		return model.Auction{}, fmt.Errorf("transition auction %s from %s: %w", auctionID, from, auctionerrors.ErrStaleTransition)
	}

	auction.Status = to
	auction.UpdatedAt = time.Now().UTC()
	s.auctions[auctionID] = auction
	return auction, nil
}

// ResetForRestart re-lists an ENDED auction with a new bidding window
func (s *MemoryStore) ResetForRestart(auctionID string, startTime, endTime time.Time, to model.AuctionStatus) (model.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	auction, ok := s.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("restart auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if auction.Status != model.AuctionEnded {
		return model.Auction{}, fmt.Errorf("restart auction %s in status %s: %w", auctionID, auction.Status, auctionerrors.ErrStaleTransition)
	}

	auction.StartTime = startTime
	auction.EndTime = endTime
	auction.Status = to
	auction.CurrentBid = auction.StartingPrice
	auction.BidCount = 0
	auction.UpdatedAt = time.Now().UTC()
	s.auctions[auctionID] = auction
	return auction, nil
}

// GetBidsByAuction returns all bids for an auction ordered by amount descending
func (s *MemoryStore) GetBidsByAuction(auctionID string) ([]model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	bids := append([]model.Bid(nil), s.bids[auctionID]...)
	sort.Slice(bids, func(i, j int) bool {
		return bids[i].Amount.GreaterThan(bids[j].Amount)
	})
	return bids, nil
}
