package models

import "time"

// DecrementInterval is the unit of time after which the price drops once.
type DecrementInterval string

const (
	IntervalHour DecrementInterval = "hour"
	IntervalDay  DecrementInterval = "day"
)

// Duration returns the wall-clock length of one decrement interval.
func (d DecrementInterval) Duration() time.Duration {
	if d == IntervalDay {
		return 24 * time.Hour
	}
	return time.Hour
}

// AuctionStatus represents the lifecycle of an auction
type AuctionStatus string

const (
	AuctionActive AuctionStatus = "active"
	AuctionEnded  AuctionStatus = "ended"
)

// Auction represents the bidding-relevant subset of a product listing.
// StartingPrice, ReservePrice, PriceDecrement, DecrementInterval and EndTime
// come from the catalog service and are never mutated by this engine.
// HighestBidAmount/HighestBidderID are a denormalized cache of the maximum
// currently-authorized bid; nil means no authorized bid exists.
type Auction struct {
	AuctionID         string            `json:"auction_id"`
	Title             string            `json:"title"`
	StartingPrice     float64           `json:"starting_price"`
	ReservePrice      *float64          `json:"reserve_price,omitempty"`
	PriceDecrement    float64           `json:"price_decrement"`
	DecrementInterval DecrementInterval `json:"decrement_interval"`
	StartTime         time.Time         `json:"start_time"`
	EndTime           time.Time         `json:"end_time"`
	Status            AuctionStatus     `json:"status"`
	HighestBidAmount  *float64          `json:"highest_bid_amount,omitempty"`
	HighestBidderID   *string           `json:"highest_bidder_id,omitempty"`
}

// Ended reports whether the auction is past its end time or already settled.
func (a Auction) Ended(now time.Time) bool {
	return a.Status == AuctionEnded || !now.Before(a.EndTime)
}

// BidState is the lifecycle state of a bid
type BidState string

const (
	BidPending     BidState = "pending"     // durable row exists, no hold requested yet
	BidAuthorizing BidState = "authorizing" // hold requested, waiting for confirmation
	BidAuthorized  BidState = "authorized"  // hold confirmed; funds are reserved
	BidCancelled   BidState = "cancelled"
	BidSuperseded  BidState = "superseded" // auction ended before the bid finished authorizing
	BidWon         BidState = "won"
	BidLost        BidState = "lost"
)

// Terminal reports whether a bid in this state is immutable.
func (s BidState) Terminal() bool {
	switch s {
	case BidCancelled, BidSuperseded, BidWon, BidLost:
		return true
	}
	return false
}

// HoldAllowed reports whether a payment hold may exist for a bid in this state.
func (s BidState) HoldAllowed() bool {
	switch s {
	case BidPending, BidAuthorizing, BidAuthorized:
		return true
	}
	return false
}

// Bid represents a bidder's offer on an auction. PaymentHoldRef is the opaque
// handle returned by the payment provider; it is empty until a hold has been
// placed.
type Bid struct {
	BidID          string    `json:"bid_id"`
	AuctionID      string    `json:"auction_id"`
	BidderID       string    `json:"bidder_id"`
	Amount         float64   `json:"amount"`
	State          BidState  `json:"state"`
	PaymentHoldRef string    `json:"payment_hold_ref,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
