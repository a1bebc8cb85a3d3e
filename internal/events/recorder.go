package events

import (
	"context"
	"sync"

	"auction-engine/utils"
)

// Recorder is an in-process Publisher that keeps every event it receives, in
// publish order. It backs tests and serves as the dev fallback when no broker
// is configured.
type Recorder struct {
	mu      sync.Mutex
	highest []HighestBidChanged
	cancels []BidCancelled
	ended   []AuctionEnded
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// PublishHighestBidChanged records the event.
func (r *Recorder) PublishHighestBidChanged(_ context.Context, event HighestBidChanged) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.highest = append(r.highest, event)
	utils.Info("highest bid changed", map[string]any{
		"auction_id": event.AuctionID, "bid_id": event.BidID, "amount": event.Amount,
	})
	return nil
}

// PublishBidCancelled records the event.
func (r *Recorder) PublishBidCancelled(_ context.Context, event BidCancelled) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels = append(r.cancels, event)
	utils.Info("bid cancelled", map[string]any{
		"auction_id": event.AuctionID, "bid_id": event.BidID,
	})
	return nil
}

// PublishAuctionEnded records the event.
func (r *Recorder) PublishAuctionEnded(_ context.Context, event AuctionEnded) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = append(r.ended, event)
	utils.Info("auction ended", map[string]any{"auction_id": event.AuctionID})
	return nil
}

// HighestBidChanges returns a copy of the recorded HighestBidChanged events.
func (r *Recorder) HighestBidChanges() []HighestBidChanged {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]HighestBidChanged(nil), r.highest...)
}

// BidCancellations returns a copy of the recorded BidCancelled events.
func (r *Recorder) BidCancellations() []BidCancelled {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]BidCancelled(nil), r.cancels...)
}

// AuctionEndings returns a copy of the recorded AuctionEnded events.
func (r *Recorder) AuctionEndings() []AuctionEnded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]AuctionEnded(nil), r.ended...)
}
