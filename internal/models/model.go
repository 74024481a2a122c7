package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus enumerates the auction lifecycle states
type AuctionStatus string

const (
	AuctionScheduled AuctionStatus = "SCHEDULED"
	AuctionActive    AuctionStatus = "ACTIVE"
	AuctionEnded     AuctionStatus = "ENDED"
	AuctionCancelled AuctionStatus = "CANCELLED"
)

// BidStatus enumerates the per-bid states
type BidStatus string

const (
	BidActive  BidStatus = "ACTIVE"
	BidWinning BidStatus = "WINNING"
	BidOutbid  BidStatus = "OUTBID"
)

// Auction represents a timed ascending-price auction on a catalog product
type Auction struct {
	AuctionID     string          `json:"auction_id" gorm:"column:auction_id;primaryKey;type:varchar(36)"`
	ProductID     string          `json:"product_id" gorm:"column:product_id;type:varchar(36);index"`
	SellerID      string          `json:"seller_id" gorm:"column:seller_id;type:varchar(36);index"`
	Title         string          `json:"title" gorm:"column:title;type:varchar(255)"`
	Category      string          `json:"category" gorm:"column:category;type:varchar(100);index"`
	StartingPrice decimal.Decimal `json:"starting_price" gorm:"column:starting_price;type:decimal(20,2)"`
	ReservePrice  decimal.Decimal `json:"reserve_price" gorm:"column:reserve_price;type:decimal(20,2)"`
	BidIncrement  decimal.Decimal `json:"bid_increment" gorm:"column:bid_increment;type:decimal(20,2)"`
	CurrentBid    decimal.Decimal `json:"current_bid" gorm:"column:current_bid;type:decimal(20,2)"`
	BidCount      int             `json:"bid_count" gorm:"column:bid_count"`
	StartTime     time.Time       `json:"start_time" gorm:"column:start_time;index"`
	EndTime       time.Time       `json:"end_time" gorm:"column:end_time;index"`
	Status        AuctionStatus   `json:"status" gorm:"column:status;type:varchar(20);index"`
	CreatedAt     time.Time       `json:"created_at" gorm:"column:created_at"`
	UpdatedAt     time.Time       `json:"updated_at" gorm:"column:updated_at"`
}

// Bid represents a user's bid on an auction. Bids are append-only: the amount
// never changes after acceptance, only the status flips (WINNING -> OUTBID).
type Bid struct {
	BidID       string          `json:"bid_id" gorm:"column:bid_id;primaryKey;type:varchar(36)"`
	AuctionID   string          `json:"auction_id" gorm:"column:auction_id;type:varchar(36);index"`
	BidderID    string          `json:"bidder_id" gorm:"column:bidder_id;type:varchar(36);index"`
	Amount      decimal.Decimal `json:"amount" gorm:"column:amount;type:decimal(20,2)"`
	IsAutomatic bool            `json:"is_automatic" gorm:"column:is_automatic"`
	Status      BidStatus       `json:"status" gorm:"column:status;type:varchar(20)"`
	CreatedAt   time.Time       `json:"created_at" gorm:"column:created_at"`
}

// MinimumNextBid returns the smallest amount the next bid must reach:
// max(startingPrice, currentBid + bidIncrement). CurrentBid starts at the
// starting price, so the very first bid already has to clear one increment.
func (a *Auction) MinimumNextBid() decimal.Decimal {
	min := a.CurrentBid.Add(a.BidIncrement)
	if min.LessThan(a.StartingPrice) {
		return a.StartingPrice
	}
	return min
}

// WindowOpen reports whether now falls inside [StartTime, EndTime). The
// validator checks this independently of Status so a bid can never slip
// through between the window closing and the next scheduler cycle.
func (a *Auction) WindowOpen(now time.Time) bool {
	return !now.Before(a.StartTime) && now.Before(a.EndTime)
}

// Snapshot is the minimal auction state broadcast with every mutation event,
// sufficient for a client to update its view without a follow-up read.
type Snapshot struct {
	AuctionID  string          `json:"auction_id"`
	Status     AuctionStatus   `json:"status"`
	CurrentBid decimal.Decimal `json:"current_bid"`
	BidCount   int             `json:"bid_count"`
	EndTime    time.Time       `json:"end_time"`
}

// Snapshot extracts the broadcast snapshot from an auction
func (a *Auction) Snapshot() Snapshot {
	return Snapshot{
		AuctionID:  a.AuctionID,
		Status:     a.Status,
		CurrentBid: a.CurrentBid,
		BidCount:   a.BidCount,
		EndTime:    a.EndTime,
	}
}
