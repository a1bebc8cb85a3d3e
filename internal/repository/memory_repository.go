package repository

import (
	"fmt"
	"sync"
	"time"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"
	"auction-engine/internal/pricing"
)

// MemoryStore is a concurrency-safe in-memory implementation of AuctionStore.
// It is used for development and tests; the single mutex makes every
// TrySetHighest/RecomputeHighest call a serializable step, which is the same
// guarantee the MySQL implementation gets from its row lock.
type MemoryStore struct {
	mu       sync.RWMutex
	auctions map[string]model.Auction // key: auctionID
	bids     map[string]model.Bid     // key: bidID
	byAuc    map[string][]string      // key: auctionID -> bidIDs in creation order
}

// NewMemoryStore creates a new in-memory store instance
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions: make(map[string]model.Auction),
		bids:     make(map[string]model.Bid),
		byAuc:    make(map[string][]string),
	}
}

// AddAuction registers an auction with the engine.
func (r *MemoryStore) AddAuction(a model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auctions[a.AuctionID] = a
	return nil
}

// GetAuction returns an auction by ID
func (r *MemoryStore) GetAuction(auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return a, nil
}

// ListExpiredActiveAuctions returns active auctions whose end time has passed
func (r *MemoryStore) ListExpiredActiveAuctions(now time.Time) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var expired []model.Auction
	for _, a := range r.auctions {
		if a.Status == model.AuctionActive && !now.Before(a.EndTime) {
			expired = append(expired, a)
		}
	}
	return expired, nil
}

// MarkAuctionEnded transitions an auction to ended exactly once
func (r *MemoryStore) MarkAuctionEnded(auctionID string) (model.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("end auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if a.Status == model.AuctionEnded {
		return model.Auction{}, fmt.Errorf("end auction %s: %w", auctionID, auctionerrors.ErrAuctionEnded)
	}
	a.Status = model.AuctionEnded
	r.auctions[auctionID] = a
	return a, nil
}

// CreateBid records a new bid row
func (r *MemoryStore) CreateBid(bid model.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[bid.AuctionID]; !ok {
		return fmt.Errorf("create bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}

	r.bids[bid.BidID] = bid
	r.byAuc[bid.AuctionID] = append(r.byAuc[bid.AuctionID], bid.BidID)
	return nil
}

// GetBid returns a bid by ID
func (r *MemoryStore) GetBid(bidID string) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bids[bidID]
	if !ok {
		return model.Bid{}, fmt.Errorf("get bid %s: %w", bidID, auctionerrors.ErrBidNotFound)
	}
	return b, nil
}

// GetBidsByAuction returns all bids for an auction in creation order
func (r *MemoryStore) GetBidsByAuction(auctionID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	ids := r.byAuc[auctionID]
	bids := make([]model.Bid, 0, len(ids))
	for _, id := range ids {
		bids = append(bids, r.bids[id])
	}
	return bids, nil
}

// TransitionBid moves a bid between lifecycle states with compare-and-set
// semantics on the from state.
func (r *MemoryStore) TransitionBid(bidID string, from, to model.BidState) (model.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bids[bidID]
	if !ok {
		return model.Bid{}, fmt.Errorf("transition bid %s: %w", bidID, auctionerrors.ErrBidNotFound)
	}
	if b.State != from {
		return model.Bid{}, fmt.Errorf("transition bid %s from %s to %s (currently %s): %w",
			bidID, from, to, b.State, auctionerrors.ErrBidStateConflict)
	}
	b.State = to
	r.bids[bidID] = b
	return b, nil
}

// AttachHoldRef stores the payment hold handle on a bid still in Authorizing.
// A bid the timeout sweep already cancelled rejects the attach, so the caller
// knows the late hold must be released rather than recorded.
func (r *MemoryStore) AttachHoldRef(bidID, holdRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bids[bidID]
	if !ok {
		return fmt.Errorf("attach hold to bid %s: %w", bidID, auctionerrors.ErrBidNotFound)
	}
	if b.State != model.BidAuthorizing {
		return fmt.Errorf("attach hold to bid %s (currently %s): %w",
			bidID, b.State, auctionerrors.ErrBidStateConflict)
	}
	b.PaymentHoldRef = holdRef
	r.bids[bidID] = b
	return nil
}

// ListBidsInStateBefore returns bids stuck in a state since before the cutoff
func (r *MemoryStore) ListBidsInStateBefore(state model.BidState, cutoff time.Time) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stale []model.Bid
	for _, b := range r.bids {
		if b.State == state && b.CreatedAt.Before(cutoff) {
			stale = append(stale, b)
		}
	}
	return stale, nil
}

// TrySetHighest performs the conditional highest-bid update. The whole check
// and write happens under the store lock, so exactly one of any set of
// concurrent calls can succeed for a given price level.
func (r *MemoryStore) TrySetHighest(auctionID, bidID string, amount float64, now time.Time) (HighestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return HighestResult{}, fmt.Errorf("set highest for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	b, ok := r.bids[bidID]
	if !ok {
		return HighestResult{}, fmt.Errorf("set highest for auction %s: %w", auctionID, auctionerrors.ErrBidNotFound)
	}
	if a.Ended(now) {
		return HighestResult{}, fmt.Errorf("set highest for auction %s: %w", auctionID, auctionerrors.ErrAuctionEnded)
	}

	current := pricing.CurrentPrice(a, now)
	if amount <= current {
		res := HighestResult{Accepted: false, CurrentHighest: current}
		if a.HighestBidderID != nil {
			res.HighestBidderID = *a.HighestBidderID
		}
		return res, nil
	}

	a.HighestBidAmount = &amount
	bidder := b.BidderID
	a.HighestBidderID = &bidder
	r.auctions[auctionID] = a

	return HighestResult{Accepted: true, CurrentHighest: amount, HighestBidderID: bidder}, nil
}

// RecomputeHighest rescans authorized bids and rewrites the cached highest
func (r *MemoryStore) RecomputeHighest(auctionID string) (model.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("recompute highest for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	var best *model.Bid
	for _, id := range r.byAuc[auctionID] {
		b := r.bids[id]
		if b.State != model.BidAuthorized {
			continue
		}
		if best == nil || b.Amount > best.Amount {
			bb := b
			best = &bb
		}
	}

	if best == nil {
		a.HighestBidAmount = nil
		a.HighestBidderID = nil
	} else {
		amount := best.Amount
		bidder := best.BidderID
		a.HighestBidAmount = &amount
		a.HighestBidderID = &bidder
	}
	r.auctions[auctionID] = a
	return a, nil
}
