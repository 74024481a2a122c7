package broadcast

import (
	model "auction-engine/internal/models"
)

// Topic names. Every auction mutation is published twice: once on the global
// topic consumed by list views, once on the auction's own topic consumed by
// detail views.
const TopicGlobal = "auctions:global"

// TopicAuction returns the per-auction topic name
func TopicAuction(auctionID string) string {
	return "auctions:" + auctionID
}

// Event types
const (
	EventAuctionStarted       = "auction_started"
	EventAuctionEnded         = "auction_ended"
	EventBidPlaced            = "bid_placed"
	EventAuctionStatusChanged = "auction_status_changed"
)

// Event is the wire payload pushed to subscribers. The embedded snapshot is
// self-sufficient: a client can update its view without a follow-up read.
// Delivery is best-effort; consumers reconcile via GET /auctions/{id} when an
// event is missed.
type Event struct {
	Type      string         `json:"type"`
	AuctionID string         `json:"auction_id"`
	Auction   model.Snapshot `json:"auction"`
	Bid       *model.Bid     `json:"bid,omitempty"`
}

// NewAuctionEvent builds an event carrying the auction snapshot
func NewAuctionEvent(eventType string, auction model.Auction) Event {
	return Event{
		Type:      eventType,
		AuctionID: auction.AuctionID,
		Auction:   auction.Snapshot(),
	}
}

// NewBidEvent builds a bid_placed event carrying both the auction snapshot
// and the accepted bid
func NewBidEvent(auction model.Auction, bid model.Bid) Event {
	return Event{
		Type:      EventBidPlaced,
		AuctionID: auction.AuctionID,
		Auction:   auction.Snapshot(),
		Bid:       &bid,
	}
}

// Publisher is the fan-out contract used by the bidding service and the
// status engine. Publishing is fire-and-forget: implementations must never
// fail or block the originating state change.
type Publisher interface {
	Publish(event Event)
}

// NopPublisher discards all events. Used where no realtime layer is wired.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
