// Package events defines the authoritative state-transition events the engine
// broadcasts and the publisher abstraction used to deliver them. Delivery is
// at-least-once; each payload carries the authoritative highest-bid values
// read in the same atomic step that produced the transition, so consumers can
// discard stale events by value comparison instead of relying on delivery
// order.
package events

import "context"

// HighestBidChanged is published when a bid becomes the auction-wide highest.
type HighestBidChanged struct {
	AuctionID string  `json:"auction_id"`
	BidID     string  `json:"bid_id"`
	Amount    float64 `json:"amount"`
	BidderID  string  `json:"bidder_id"`
}

// BidCancelled is published when a bid leaves the running for an auction.
// CurrentHighestAmount/CurrentHighestBidderID reflect the cache after any
// recompute triggered by the cancellation; nil means no authorized bid
// remains.
type BidCancelled struct {
	AuctionID              string   `json:"auction_id"`
	BidID                  string   `json:"bid_id"`
	CurrentHighestAmount   *float64 `json:"current_highest_amount,omitempty"`
	CurrentHighestBidderID *string  `json:"current_highest_bidder_id,omitempty"`
}

// AuctionEnded is published after settlement. WinningBidID is nil when the
// auction ended with no authorized bids.
type AuctionEnded struct {
	AuctionID     string   `json:"auction_id"`
	WinningBidID  *string  `json:"winning_bid_id,omitempty"`
	WinningAmount *float64 `json:"winning_amount,omitempty"`
}

// Publisher broadcasts engine events to subscribers.
type Publisher interface {
	PublishHighestBidChanged(ctx context.Context, event HighestBidChanged) error
	PublishBidCancelled(ctx context.Context, event BidCancelled) error
	PublishAuctionEnded(ctx context.Context, event AuctionEnded) error
}
