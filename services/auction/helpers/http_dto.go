package helpers

import (
	"time"

	model "auction-engine/internal/models"

	"github.com/shopspring/decimal"
)

// Request/Response DTOs
type PlaceBidRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	IsAutomatic bool            `json:"is_automatic"`
}

type RestartAuctionRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

type CreateAuctionRequest struct {
	ProductID     string          `json:"product_id" binding:"required"`
	Title         string          `json:"title" binding:"required"`
	Category      string          `json:"category"`
	StartingPrice decimal.Decimal `json:"starting_price" binding:"required"`
	ReservePrice  decimal.Decimal `json:"reserve_price"`
	BidIncrement  decimal.Decimal `json:"bid_increment" binding:"required"`
	StartTime     time.Time       `json:"start_time" binding:"required"`
	EndTime       time.Time       `json:"end_time" binding:"required"`
}

type BidResponse struct {
	BidID       string          `json:"bid_id"`
	AuctionID   string          `json:"auction_id"`
	BidderID    string          `json:"bidder_id"`
	Amount      decimal.Decimal `json:"amount"`
	Status      model.BidStatus `json:"status"`
	IsAutomatic bool            `json:"is_automatic"`
	CreatedAt   string          `json:"created_at"`
}

type AuctionResponse struct {
	AuctionID     string              `json:"auction_id"`
	ProductID     string              `json:"product_id"`
	SellerID      string              `json:"seller_id"`
	Title         string              `json:"title"`
	Category      string              `json:"category"`
	StartingPrice decimal.Decimal     `json:"starting_price"`
	BidIncrement  decimal.Decimal     `json:"bid_increment"`
	CurrentBid    decimal.Decimal     `json:"current_bid"`
	MinimumBid    decimal.Decimal     `json:"minimum_bid"`
	BidCount      int                 `json:"bid_count"`
	StartTime     string              `json:"start_time"`
	EndTime       string              `json:"end_time"`
	Status        model.AuctionStatus `json:"status"`
}

type AuctionDetailResponse struct {
	AuctionResponse
	Bids []BidResponse `json:"bids"`
}

// NewBidResponse maps a bid onto the wire format
func NewBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:       bid.BidID,
		AuctionID:   bid.AuctionID,
		BidderID:    bid.BidderID,
		Amount:      bid.Amount,
		Status:      bid.Status,
		IsAutomatic: bid.IsAutomatic,
		CreatedAt:   bid.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewAuctionResponse maps an auction onto the wire format. Reserve price is
// deliberately omitted: it is the seller's hidden minimum.
func NewAuctionResponse(auction model.Auction) AuctionResponse {
	return AuctionResponse{
		AuctionID:     auction.AuctionID,
		ProductID:     auction.ProductID,
		SellerID:      auction.SellerID,
		Title:         auction.Title,
		Category:      auction.Category,
		StartingPrice: auction.StartingPrice,
		BidIncrement:  auction.BidIncrement,
		CurrentBid:    auction.CurrentBid,
		MinimumBid:    auction.MinimumNextBid(),
		BidCount:      auction.BidCount,
		StartTime:     auction.StartTime.UTC().Format(time.RFC3339),
		EndTime:       auction.EndTime.UTC().Format(time.RFC3339),
		Status:        auction.Status,
	}
}

// NewAuctionDetailResponse maps an auction plus its bid history
func NewAuctionDetailResponse(auction model.Auction, bids []model.Bid) AuctionDetailResponse {
	resp := AuctionDetailResponse{
		AuctionResponse: NewAuctionResponse(auction),
		Bids:            make([]BidResponse, 0, len(bids)),
	}
	for _, bid := range bids {
		resp.Bids = append(resp.Bids, NewBidResponse(bid))
	}
	return resp
}
