package lifecycle

import (
	"context"
	"errors"
	"time"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"
	"auction-engine/utils"
)

// Run drives the background maintenance loop until the context is cancelled:
// auto-cancelling bids stuck in Authorizing past the timeout and settling
// auctions whose end time has passed.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepAuthorizingTimeouts(ctx)
			s.SettleExpiredAuctions(ctx)
		}
	}
}

// SweepAuthorizingTimeouts cancels bids that have sat in Authorizing longer
// than the configured timeout and releases their holds. The per-bid
// compare-and-set makes the sweep idempotent and mutually exclusive with a
// late confirmation: whichever transition lands first wins, the other is a
// no-op.
func (s *Service) SweepAuthorizingTimeouts(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.authorizingTimeout)
	stale, err := s.store.ListBidsInStateBefore(model.BidAuthorizing, cutoff)
	if err != nil {
		utils.Error("timeout sweep: failed to list stale bids", map[string]any{"error": err.Error()})
		return
	}

	for _, b := range stale {
		err := s.cancelFromState(ctx, b, model.BidAuthorizing)
		if errors.Is(err, auctionerrors.ErrBidStateConflict) {
			// A confirmation landed between the scan and the transition.
			continue
		}
		if err != nil {
			utils.Error("timeout sweep: failed to cancel stale bid", map[string]any{"bid_id": b.BidID, "error": err.Error()})
			continue
		}
		utils.Info("timeout sweep: cancelled stale bid", map[string]any{
			"bid_id": b.BidID, "auction_id": b.AuctionID, "created_at": b.CreatedAt,
		})
	}
}

// SettleExpiredAuctions settles every active auction whose end time has
// passed. Settlement losses to a concurrent settler are skipped silently.
func (s *Service) SettleExpiredAuctions(ctx context.Context) {
	expired, err := s.store.ListExpiredActiveAuctions(time.Now().UTC())
	if err != nil {
		utils.Error("settlement sweep: failed to list expired auctions", map[string]any{"error": err.Error()})
		return
	}

	for _, a := range expired {
		err := s.SettleAuction(ctx, a.AuctionID)
		if errors.Is(err, auctionerrors.ErrAuctionEnded) {
			continue
		}
		if err != nil {
			utils.Error("settlement sweep: failed to settle auction", map[string]any{"auction_id": a.AuctionID, "error": err.Error()})
			continue
		}
		utils.Info("settlement sweep: auction settled", map[string]any{"auction_id": a.AuctionID})
	}
}
