package repository

import (
	"time"

	model "auction-engine/internal/models"
)

// HighestResult is the outcome of a conditional highest-bid update. When the
// update is rejected, CurrentHighest carries the amount the caller would have
// needed to beat, read in the same atomic step that rejected it.
type HighestResult struct {
	Accepted        bool
	CurrentHighest  float64
	HighestBidderID string
}

// AuctionStore defines the durable storage interface for auctions and bids.
//
// TrySetHighest and RecomputeHighest are the only two operations allowed to
// write the denormalized highest-bid cache on an auction; both must execute
// as a single atomic step against the auction row so that concurrent bids
// cannot both win.
type AuctionStore interface {
	// Auctions
	AddAuction(a model.Auction) error
	GetAuction(auctionID string) (model.Auction, error)
	// ListExpiredActiveAuctions returns active auctions whose end time has
	// passed, for lazy end-of-auction settlement.
	ListExpiredActiveAuctions(now time.Time) ([]model.Auction, error)
	// MarkAuctionEnded transitions an auction to ended and returns its final
	// state with the highest-bid cache frozen. Ending an already-ended
	// auction returns ErrAuctionEnded so settlement runs at most once.
	MarkAuctionEnded(auctionID string) (model.Auction, error)

	// Bids
	CreateBid(bid model.Bid) error
	GetBid(bidID string) (model.Bid, error)
	GetBidsByAuction(auctionID string) ([]model.Bid, error)
	// TransitionBid moves a bid from one lifecycle state to another. The
	// transition only succeeds when the bid is still in the expected from
	// state; otherwise ErrBidStateConflict is returned. This compare-and-set
	// is what keeps the timeout sweep and a late confirmation mutually
	// exclusive.
	TransitionBid(bidID string, from, to model.BidState) (model.Bid, error)
	AttachHoldRef(bidID, holdRef string) error
	// ListBidsInStateBefore returns bids in the given state created before
	// the cutoff, for the authorizing-timeout sweep.
	ListBidsInStateBefore(state model.BidState, cutoff time.Time) ([]model.Bid, error)

	// Arbitration
	// TrySetHighest attempts to make the given bid the auction-wide highest.
	// It succeeds iff the auction is still active at now and amount strictly
	// exceeds the current price (cached highest, or decayed floor when no
	// authorized bid exists), all evaluated in one atomic step. An ended
	// auction yields ErrAuctionEnded.
	TrySetHighest(auctionID, bidID string, amount float64, now time.Time) (HighestResult, error)
	// RecomputeHighest rescans all authorized bids for the auction and
	// rewrites the cache to their maximum, clearing it when none remain.
	// It is the only path by which the cached highest can decrease, and it
	// is idempotent. The updated auction is returned.
	RecomputeHighest(auctionID string) (model.Auction, error)
}
