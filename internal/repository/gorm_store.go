package repository

import (
	"errors"
	"fmt"
	"time"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormStore is the MySQL-backed implementation of AuctionStore. All races on
// the hot current_bid value and on status transitions are resolved by
// single-row conditional UPDATEs: the WHERE clause carries the expected prior
// state and a zero-row result means the caller lost the race.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore connects to MySQL and migrates the auction schema
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&model.Auction{}, &model.Bid{}); err != nil {
		return nil, fmt.Errorf("storage: failed to migrate schema: %w", err)
	}

	return &GormStore{db: db}, nil
}

// NewGormStoreWithDB wraps an existing gorm.DB. Used by tests that supply
// their own connection.
func NewGormStoreWithDB(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// CreateAuction registers a new auction listing
func (s *GormStore) CreateAuction(auction model.Auction) error {
	if err := s.db.Create(&auction).Error; err != nil {
		return fmt.Errorf("storage: create auction %s: %w", auction.AuctionID, err)
	}
	return nil
}

// GetAuction returns a point-in-time snapshot of one auction
func (s *GormStore) GetAuction(auctionID string) (model.Auction, error) {
	var auction model.Auction
	err := s.db.Where("auction_id = ?", auctionID).First(&auction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Auction{}, fmt.Errorf("storage: get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, fmt.Errorf("storage: get auction %s: %w", auctionID, err)
	}
	return auction, nil
}

// ListActiveAuctions returns ACTIVE auctions matching the filter, newest first
func (s *GormStore) ListActiveAuctions(filter AuctionFilter) ([]model.Auction, error) {
	q := s.db.Where("status = ?", model.AuctionActive)
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.MinPrice != nil {
		q = q.Where("current_bid >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("current_bid <= ?", *filter.MaxPrice)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	auctions := make([]model.Auction, 0)
	if err := q.Order("created_at DESC").Find(&auctions).Error; err != nil {
		return nil, fmt.Errorf("storage: list active auctions: %w", err)
	}
	return auctions, nil
}

// ListDueAuctions returns auctions in the given status whose boundary has
// been crossed, oldest boundary first, capped to the scan batch size.
func (s *GormStore) ListDueAuctions(status model.AuctionStatus, due time.Time, limit int) ([]model.Auction, error) {
	boundary := "start_time"
	if status == model.AuctionActive {
		boundary = "end_time"
	}

	auctions := make([]model.Auction, 0)
	q := s.db.Where("status = ?", status).Where(boundary+" <= ?", due).Order(boundary + " ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&auctions).Error; err != nil {
		return nil, fmt.Errorf("storage: list due %s auctions: %w", status, err)
	}
	return auctions, nil
}

// ApplyBid applies one accepted bid in a single transaction. The conditional
// UPDATE on the auction row is the serialization point: of two concurrent
// bids only the first to satisfy the WHERE clause commits, the other sees
// zero rows and surfaces ErrBidConflict for re-validation by the service.
func (s *GormStore) ApplyBid(bid model.Bid) (model.Auction, error) {
	var updated model.Auction

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Auction{}).
			Where("auction_id = ? AND status = ?", bid.AuctionID, model.AuctionActive).
			Where("current_bid + bid_increment <= ?", bid.Amount).
			Updates(map[string]any{
				"current_bid": bid.Amount,
				"bid_count":   gorm.Expr("bid_count + 1"),
				"updated_at":  time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&model.Auction{}).Where("auction_id = ?", bid.AuctionID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return auctionerrors.ErrAuctionNotFound
			}
			return auctionerrors.ErrBidConflict
		}

		if err := tx.Model(&model.Bid{}).
			Where("auction_id = ? AND status = ?", bid.AuctionID, model.BidWinning).
			Update("status", model.BidOutbid).Error; err != nil {
			return err
		}

		bid.Status = model.BidWinning
		if err := tx.Create(&bid).Error; err != nil {
			return err
		}

		return tx.Where("auction_id = ?", bid.AuctionID).First(&updated).Error
	})
	if err != nil {
		return model.Auction{}, fmt.Errorf("storage: apply bid for auction %s: %w", bid.AuctionID, err)
	}
	return updated, nil
}

// TransitionStatus applies a conditional status transition. Idempotent under
// overlapping scheduler scans: a second attempt matches zero rows.
func (s *GormStore) TransitionStatus(auctionID string, from, to model.AuctionStatus) (model.Auction, error) {
	res := s.db.Model(&model.Auction{}).
		Where("auction_id = ? AND status = ?", auctionID, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return model.Auction{}, fmt.Errorf("storage: transition auction %s: %w", auctionID, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.Model(&model.Auction{}).Where("auction_id = ?", auctionID).Count(&count).Error; err != nil {
			return model.Auction{}, fmt.Errorf("storage: transition auction %s: %w", auctionID, err)
		}
		if count == 0 {
			return model.Auction{}, fmt.Errorf("storage: transition auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
		}
		return model.Auction{}, fmt.Errorf("storage: transition auction %s from %s: %w", auctionID, from, auctionerrors.ErrStaleTransition)
	}
	return s.GetAuction(auctionID)
}

// ResetForRestart re-lists an ENDED auction with a new bidding window,
// keeping the prior bid rows as history.
func (s *GormStore) ResetForRestart(auctionID string, startTime, endTime time.Time, to model.AuctionStatus) (model.Auction, error) {
	res := s.db.Model(&model.Auction{}).
		Where("auction_id = ? AND status = ?", auctionID, model.AuctionEnded).
		Updates(map[string]any{
			"start_time":  startTime,
			"end_time":    endTime,
			"status":      to,
			"current_bid": gorm.Expr("starting_price"),
			"bid_count":   0,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return model.Auction{}, fmt.Errorf("storage: restart auction %s: %w", auctionID, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.Model(&model.Auction{}).Where("auction_id = ?", auctionID).Count(&count).Error; err != nil {
			return model.Auction{}, fmt.Errorf("storage: restart auction %s: %w", auctionID, err)
		}
		if count == 0 {
			return model.Auction{}, fmt.Errorf("storage: restart auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
		}
		return model.Auction{}, fmt.Errorf("storage: restart auction %s: %w", auctionID, auctionerrors.ErrStaleTransition)
	}
	return s.GetAuction(auctionID)
}

// GetBidsByAuction returns all bids for an auction ordered by amount descending
func (s *GormStore) GetBidsByAuction(auctionID string) ([]model.Bid, error) {
	bids := make([]model.Bid, 0)
	err := s.db.Where("auction_id = ?", auctionID).Order("amount DESC").Find(&bids).Error
	if err != nil {
		return nil, fmt.Errorf("storage: get bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}
