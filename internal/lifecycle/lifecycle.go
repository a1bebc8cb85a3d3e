// Package lifecycle orchestrates the multi-step bid flow: create a pending
// bid, place a payment hold, wait for client confirmation, arbitrate via the
// store's conditional highest-bid update, and settle or cancel. It owns the
// per-bid state machine; every write to an auction's highest-bid cache
// funnels through the store's TrySetHighest or RecomputeHighest.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/events"
	model "auction-engine/internal/models"
	"auction-engine/internal/payments"
	"auction-engine/internal/pricecache"
	"auction-engine/internal/pricing"
	"auction-engine/internal/repository"
	"auction-engine/utils"
)

// DefaultAuthorizingTimeout is how long a bid may sit in Authorizing without
// a confirmation before the sweeper auto-cancels it and releases its hold.
const DefaultAuthorizingTimeout = 15 * time.Minute

// PriceQuote is the current price exposed to viewers.
type PriceQuote struct {
	Amount              float64
	HasActiveHighestBid bool
}

// ConfirmResult reports the outcome of a confirmation. When Accepted is
// false the bid still stands (unless State says otherwise) and
// CurrentHighest carries the amount it would need to beat.
type ConfirmResult struct {
	Accepted       bool
	CurrentHighest float64
	State          model.BidState
}

// Service implements the bid lifecycle state machine on top of the store,
// the payment authorizer and the event publisher.
type Service struct {
	store              repository.AuctionStore
	authorizer         payments.Authorizer
	publisher          events.Publisher
	cache              *pricecache.Cache
	authorizingTimeout time.Duration
}

// NewService creates a new lifecycle Service instance. The cache may be nil;
// a non-positive timeout falls back to DefaultAuthorizingTimeout.
func NewService(store repository.AuctionStore, authorizer payments.Authorizer, publisher events.Publisher, cache *pricecache.Cache, authorizingTimeout time.Duration) *Service {
	if authorizingTimeout <= 0 {
		authorizingTimeout = DefaultAuthorizingTimeout
	}
	return &Service{
		store:              store,
		authorizer:         authorizer,
		publisher:          publisher,
		cache:              cache,
		authorizingTimeout: authorizingTimeout,
	}
}

// PlaceBid validates a bid request, creates the durable pending bid and
// places a payment hold. The pending row is written before the authorizer is
// called so a crash can never leave a hold with no bid to reconcile it; a
// hold that cannot be attached to its bid is released before the error
// returns.
func (s *Service) PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64) (model.Bid, error) {
	if auctionID == "" || bidderID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidBid)
	}
	if amount <= 0 {
		return model.Bid{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}

	a, err := s.store.GetAuction(auctionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}

	now := time.Now().UTC()
	if a.Ended(now) {
		return model.Bid{}, fmt.Errorf("service: %w", auctionerrors.ErrAuctionEnded)
	}
	// Optimistic check for fast rejection; the authoritative check happens
	// inside TrySetHighest at confirmation time.
	if !pricing.IsValidBidAmount(a, amount, now) {
		return model.Bid{}, fmt.Errorf("service: %w - current price is %.2f",
			auctionerrors.ErrInvalidAmount, pricing.CurrentPrice(a, now))
	}

	bid := model.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		State:     model.BidPending,
		CreatedAt: now,
	}
	if err := s.store.CreateBid(bid); err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to create bid for auction %s: %w", auctionID, err)
	}

	if _, err := s.store.TransitionBid(bid.BidID, model.BidPending, model.BidAuthorizing); err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to start authorization for bid %s: %w", bid.BidID, err)
	}
	bid.State = model.BidAuthorizing

	holdRef, err := s.authorizer.Authorize(ctx, bidderID, amount)
	if err != nil {
		if _, cErr := s.store.TransitionBid(bid.BidID, model.BidAuthorizing, model.BidCancelled); cErr != nil {
			utils.Error("failed to cancel bid after declined hold", map[string]any{"bid_id": bid.BidID, "error": cErr.Error()})
		}
		return model.Bid{}, fmt.Errorf("service: %w: %v", auctionerrors.ErrPaymentDeclined, err)
	}

	if err := s.store.AttachHoldRef(bid.BidID, holdRef); err != nil {
		// The hold exists but the durable transition failed; release it so no
		// orphaned hold survives the aborted attempt.
		if rErr := s.authorizer.Release(ctx, holdRef); rErr != nil {
			utils.Error("failed to release orphaned hold", map[string]any{"bid_id": bid.BidID, "hold_ref": holdRef, "error": rErr.Error()})
		}
		if _, cErr := s.store.TransitionBid(bid.BidID, model.BidAuthorizing, model.BidCancelled); cErr != nil {
			utils.Error("failed to cancel bid after hold attach failure", map[string]any{"bid_id": bid.BidID, "error": cErr.Error()})
		}
		return model.Bid{}, fmt.Errorf("service: failed to attach hold to bid %s: %w", bid.BidID, err)
	}
	bid.PaymentHoldRef = holdRef

	return bid, nil
}

// ConfirmBid handles the payment collaborator's report that the hold
// succeeded. The bid becomes Authorized and then competes for the highest
// slot via the store's conditional update; losing that race leaves the bid
// Authorized as a legitimate standing bid. Confirming an already-cancelled
// bid is a no-op, which is what makes the timeout sweep safe against late
// confirmations.
func (s *Service) ConfirmBid(ctx context.Context, bidID string) (ConfirmResult, error) {
	if bidID == "" {
		return ConfirmResult{}, fmt.Errorf("service: %w - empty bid ID", auctionerrors.ErrInvalidBid)
	}

	b, err := s.store.GetBid(bidID)
	if err != nil {
		return ConfirmResult{}, fmt.Errorf("service: failed to load bid %s: %w", bidID, err)
	}

	switch b.State {
	case model.BidCancelled, model.BidSuperseded:
		// Late confirmation after a timeout or withdrawal: no-op.
		return ConfirmResult{Accepted: false, State: b.State}, nil
	case model.BidAuthorized:
		return s.standing(b)
	case model.BidAuthorizing:
		// proceed
	default:
		return ConfirmResult{}, fmt.Errorf("service: confirm bid %s in state %s: %w",
			bidID, b.State, auctionerrors.ErrBidStateConflict)
	}

	now := time.Now().UTC()
	a, err := s.store.GetAuction(b.AuctionID)
	if err != nil {
		return ConfirmResult{}, fmt.Errorf("service: failed to load auction %s: %w", b.AuctionID, err)
	}
	if a.Ended(now) {
		// The auction closed while the hold was pending; the bid can no
		// longer become a standing bid, so cancel it and free the funds.
		if cErr := s.cancelFromState(ctx, b, model.BidAuthorizing); cErr != nil && !errors.Is(cErr, auctionerrors.ErrBidStateConflict) {
			return ConfirmResult{}, cErr
		}
		return ConfirmResult{}, fmt.Errorf("service: %w", auctionerrors.ErrAuctionEnded)
	}

	if _, err := s.store.TransitionBid(bidID, model.BidAuthorizing, model.BidAuthorized); err != nil {
		if errors.Is(err, auctionerrors.ErrBidStateConflict) {
			// The timeout sweep cancelled the bid first.
			fresh, gErr := s.store.GetBid(bidID)
			if gErr != nil {
				return ConfirmResult{}, fmt.Errorf("service: failed to reload bid %s: %w", bidID, gErr)
			}
			return ConfirmResult{Accepted: false, State: fresh.State}, nil
		}
		return ConfirmResult{}, fmt.Errorf("service: failed to authorize bid %s: %w", bidID, err)
	}

	res, err := s.store.TrySetHighest(b.AuctionID, b.BidID, b.Amount, now)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrAuctionEnded) {
			// Ended between the check above and the atomic step. The
			// settlement fan-out may already have run with this bid still
			// Authorizing in its snapshot, so nothing will revisit the hold
			// unless it is released here.
			state := s.cancelEndedBid(ctx, b)
			return ConfirmResult{Accepted: false, State: state},
				fmt.Errorf("service: %w", auctionerrors.ErrAuctionEnded)
		}
		return ConfirmResult{}, fmt.Errorf("service: conditional update failed for bid %s: %w", bidID, err)
	}

	if res.Accepted {
		event := events.HighestBidChanged{
			AuctionID: b.AuctionID,
			BidID:     b.BidID,
			Amount:    res.CurrentHighest,
			BidderID:  res.HighestBidderID,
		}
		if pErr := s.publisher.PublishHighestBidChanged(ctx, event); pErr != nil {
			utils.Error("failed to publish highest bid change", map[string]any{"auction_id": b.AuctionID, "error": pErr.Error()})
		}
		s.cache.Invalidate(ctx, b.AuctionID)
	}

	return ConfirmResult{Accepted: res.Accepted, CurrentHighest: res.CurrentHighest, State: model.BidAuthorized}, nil
}

// standing reports whether an already-authorized bid is the cached highest.
func (s *Service) standing(b model.Bid) (ConfirmResult, error) {
	a, err := s.store.GetAuction(b.AuctionID)
	if err != nil {
		return ConfirmResult{}, fmt.Errorf("service: failed to load auction %s: %w", b.AuctionID, err)
	}
	res := ConfirmResult{State: model.BidAuthorized}
	if a.HighestBidAmount != nil {
		res.CurrentHighest = *a.HighestBidAmount
		res.Accepted = a.HighestBidderID != nil && *a.HighestBidderID == b.BidderID && *a.HighestBidAmount == b.Amount
	}
	return res, nil
}

// CancelBid withdraws a bid. Cancelling a bid already in a terminal state is
// a no-op. Cancelling an authorized bid releases its hold and always
// recomputes the auction's highest-bid cache, since the bid may have been
// the cached highest.
func (s *Service) CancelBid(ctx context.Context, bidID string) error {
	if bidID == "" {
		return fmt.Errorf("service: %w - empty bid ID", auctionerrors.ErrInvalidBid)
	}

	b, err := s.store.GetBid(bidID)
	if err != nil {
		return fmt.Errorf("service: failed to load bid %s: %w", bidID, err)
	}
	if b.State.Terminal() {
		return nil
	}

	err = s.cancelFromState(ctx, b, b.State)
	if errors.Is(err, auctionerrors.ErrBidStateConflict) {
		// Lost a race with another transition; if the bid ended up terminal
		// the cancellation goal is met.
		fresh, gErr := s.store.GetBid(bidID)
		if gErr == nil && fresh.State.Terminal() {
			return nil
		}
		return fmt.Errorf("service: failed to cancel bid %s: %w", bidID, err)
	}
	return err
}

// cancelFromState performs the Cancelled transition from the given state,
// releases any hold, reconciles the highest-bid cache when the bid was
// authorized, and publishes the value-bearing cancellation event.
func (s *Service) cancelFromState(ctx context.Context, b model.Bid, from model.BidState) error {
	if _, err := s.store.TransitionBid(b.BidID, from, model.BidCancelled); err != nil {
		return err
	}

	if b.PaymentHoldRef != "" {
		if err := s.authorizer.Release(ctx, b.PaymentHoldRef); err != nil {
			utils.Error("failed to release hold on cancellation", map[string]any{"bid_id": b.BidID, "hold_ref": b.PaymentHoldRef, "error": err.Error()})
		}
	}

	event := events.BidCancelled{AuctionID: b.AuctionID, BidID: b.BidID}
	if from == model.BidAuthorized {
		// This bid may have been the cached highest; recompute
		// unconditionally. The recomputed values ride on the event so
		// consumers never observe the cancelled amount as current.
		a, err := s.store.RecomputeHighest(b.AuctionID)
		if err != nil {
			return fmt.Errorf("service: failed to recompute highest for auction %s: %w", b.AuctionID, err)
		}
		event.CurrentHighestAmount = a.HighestBidAmount
		event.CurrentHighestBidderID = a.HighestBidderID
		s.cache.Invalidate(ctx, b.AuctionID)
	} else if a, err := s.store.GetAuction(b.AuctionID); err == nil {
		event.CurrentHighestAmount = a.HighestBidAmount
		event.CurrentHighestBidderID = a.HighestBidderID
	}

	if err := s.publisher.PublishBidCancelled(ctx, event); err != nil {
		utils.Error("failed to publish bid cancellation", map[string]any{"bid_id": b.BidID, "error": err.Error()})
	}
	return nil
}

// cancelEndedBid cancels a freshly authorized bid whose auction ended before
// the conditional update could run, releasing its hold. The highest-bid cache
// is frozen once the auction ends, so no recompute happens here. Losing the
// transition race means settlement saw the bid as Authorized and already
// disposed of its hold; the fresh state is reported either way.
func (s *Service) cancelEndedBid(ctx context.Context, b model.Bid) model.BidState {
	if _, err := s.store.TransitionBid(b.BidID, model.BidAuthorized, model.BidCancelled); err != nil {
		if fresh, gErr := s.store.GetBid(b.BidID); gErr == nil {
			return fresh.State
		}
		utils.Error("failed to cancel bid after auction end", map[string]any{"bid_id": b.BidID, "error": err.Error()})
		return model.BidAuthorized
	}

	if b.PaymentHoldRef != "" {
		if err := s.authorizer.Release(ctx, b.PaymentHoldRef); err != nil {
			utils.Error("failed to release hold after auction end", map[string]any{"bid_id": b.BidID, "hold_ref": b.PaymentHoldRef, "error": err.Error()})
		}
	}

	event := events.BidCancelled{AuctionID: b.AuctionID, BidID: b.BidID}
	if a, err := s.store.GetAuction(b.AuctionID); err == nil {
		event.CurrentHighestAmount = a.HighestBidAmount
		event.CurrentHighestBidderID = a.HighestBidderID
	}
	if err := s.publisher.PublishBidCancelled(ctx, event); err != nil {
		utils.Error("failed to publish bid cancellation", map[string]any{"bid_id": b.BidID, "error": err.Error()})
	}
	return model.BidCancelled
}

// CurrentPrice resolves the price shown to viewers: the cached highest
// authorized bid when present, otherwise the decayed floor. Display reads go
// through the stale-tolerant cache.
func (s *Service) CurrentPrice(ctx context.Context, auctionID string) (PriceQuote, error) {
	if auctionID == "" {
		return PriceQuote{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}

	if amount, hasBid, ok := s.cache.GetQuote(ctx, auctionID); ok {
		return PriceQuote{Amount: amount, HasActiveHighestBid: hasBid}, nil
	}

	a, err := s.store.GetAuction(auctionID)
	if err != nil {
		return PriceQuote{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}

	quote := PriceQuote{
		Amount:              pricing.CurrentPrice(a, time.Now().UTC()),
		HasActiveHighestBid: a.HighestBidAmount != nil,
	}
	s.cache.SetQuote(ctx, auctionID, quote.Amount, quote.HasActiveHighestBid)
	return quote, nil
}

// BidsForAuction returns the bid history for an auction.
func (s *Service) BidsForAuction(auctionID string) ([]model.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}
	bids, err := s.store.GetBidsByAuction(auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// SettleAuction ends an auction and fans out terminal transitions: the bid
// matching the frozen highest-bid cache wins and its hold is captured; every
// other authorized bid loses and its hold is released; bids still in flight
// are superseded. Marking the auction ended is a guarded one-shot, so
// concurrent settlement attempts cannot double-capture.
func (s *Service) SettleAuction(ctx context.Context, auctionID string) error {
	a, err := s.store.MarkAuctionEnded(auctionID)
	if err != nil {
		return fmt.Errorf("service: failed to end auction %s: %w", auctionID, err)
	}

	bids, err := s.store.GetBidsByAuction(auctionID)
	if err != nil {
		return fmt.Errorf("service: failed to list bids for settlement of %s: %w", auctionID, err)
	}

	event := events.AuctionEnded{AuctionID: auctionID}
	var lastErr error
	for _, b := range bids {
		switch b.State {
		case model.BidAuthorized:
			isWinner := event.WinningBidID == nil &&
				a.HighestBidderID != nil && *a.HighestBidderID == b.BidderID &&
				a.HighestBidAmount != nil && *a.HighestBidAmount == b.Amount
			if isWinner {
				if _, err := s.store.TransitionBid(b.BidID, model.BidAuthorized, model.BidWon); err != nil {
					lastErr = err
					continue
				}
				if err := s.authorizer.Capture(ctx, b.PaymentHoldRef); err != nil {
					utils.Error("failed to capture winning hold", map[string]any{"bid_id": b.BidID, "hold_ref": b.PaymentHoldRef, "error": err.Error()})
					lastErr = err
				}
				bidID := b.BidID
				amount := b.Amount
				event.WinningBidID = &bidID
				event.WinningAmount = &amount
			} else {
				if _, err := s.store.TransitionBid(b.BidID, model.BidAuthorized, model.BidLost); err != nil {
					lastErr = err
					continue
				}
				if err := s.authorizer.Release(ctx, b.PaymentHoldRef); err != nil {
					utils.Error("failed to release losing hold", map[string]any{"bid_id": b.BidID, "hold_ref": b.PaymentHoldRef, "error": err.Error()})
					lastErr = err
				}
			}
		case model.BidPending, model.BidAuthorizing:
			if _, err := s.store.TransitionBid(b.BidID, b.State, model.BidSuperseded); err != nil {
				lastErr = err
				continue
			}
			if b.PaymentHoldRef != "" {
				if err := s.authorizer.Release(ctx, b.PaymentHoldRef); err != nil {
					utils.Error("failed to release in-flight hold", map[string]any{"bid_id": b.BidID, "hold_ref": b.PaymentHoldRef, "error": err.Error()})
					lastErr = err
				}
			}
		}
	}

	if err := s.publisher.PublishAuctionEnded(ctx, event); err != nil {
		utils.Error("failed to publish auction end", map[string]any{"auction_id": auctionID, "error": err.Error()})
	}
	s.cache.Invalidate(ctx, auctionID)
	return lastErr
}
