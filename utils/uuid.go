package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new unique identifier string
func GenerateID() string {
	return uuid.New().String()
}

// NewAuctionID returns a prefixed identifier for auctions
func NewAuctionID() string {
	return "auc_" + GenerateID()
}

// NewBidID returns a prefixed identifier for bids
func NewBidID() string {
	return "bid_" + GenerateID()
}
