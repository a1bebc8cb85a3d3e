package repository

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"

	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func newTestAuction(id string, start time.Time) model.Auction {
	return model.Auction{
		AuctionID:         id,
		Title:             "Test Listing " + id,
		StartingPrice:     1000,
		ReservePrice:      floatPtr(400),
		PriceDecrement:    100,
		DecrementInterval: model.IntervalHour,
		StartTime:         start,
		EndTime:           start.Add(24 * time.Hour),
		Status:            model.AuctionActive,
	}
}

func newTestBid(bidID, auctionID, bidderID string, amount float64, state model.BidState, createdAt time.Time) model.Bid {
	return model.Bid{
		BidID:     bidID,
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		State:     state,
		CreatedAt: createdAt,
	}
}

// Tests TrySetHighest contract
func TestMemoryStore_TrySetHighest(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := start.Add(3 * time.Hour) // floor = 700

	tests := []struct {
		name         string
		highest      *float64
		amount       float64
		ended        bool
		wantAccepted bool
		wantCurrent  float64
		wantErr      error
	}{
		{name: "first_bid_above_floor", amount: 750, wantAccepted: true, wantCurrent: 750},
		{name: "equal_to_floor_rejected", amount: 700, wantAccepted: false, wantCurrent: 700},
		{name: "outbid_existing_highest", highest: floatPtr(750), amount: 800, wantAccepted: true, wantCurrent: 800},
		{name: "tie_with_highest_rejected", highest: floatPtr(750), amount: 750, wantAccepted: false, wantCurrent: 750},
		{name: "below_highest_rejected", highest: floatPtr(750), amount: 720, wantAccepted: false, wantCurrent: 750},
		{name: "ended_auction_rejected", amount: 900, ended: true, wantErr: auctionerrors.ErrAuctionEnded},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := NewMemoryStore()
			a := newTestAuction("auction1", start)
			a.HighestBidAmount = tc.highest
			if tc.highest != nil {
				bidder := "incumbent"
				a.HighestBidderID = &bidder
			}
			if tc.ended {
				a.Status = model.AuctionEnded
			}
			require.NoError(t, store.AddAuction(a))
			require.NoError(t, store.CreateBid(newTestBid("bid1", "auction1", "bidderX", tc.amount, model.BidAuthorized, now)))

			res, err := store.TrySetHighest("auction1", "bid1", tc.amount, now)
			if tc.wantErr != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.wantErr))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantAccepted, res.Accepted)
			require.Equal(t, tc.wantCurrent, res.CurrentHighest)

			got, err := store.GetAuction("auction1")
			require.NoError(t, err)
			if tc.wantAccepted {
				require.NotNil(t, got.HighestBidAmount)
				require.Equal(t, tc.amount, *got.HighestBidAmount)
				require.NotNil(t, got.HighestBidderID)
				require.Equal(t, "bidderX", *got.HighestBidderID)
			} else if tc.highest != nil {
				// A rejected bid must not disturb the cached highest.
				require.Equal(t, *tc.highest, *got.HighestBidAmount)
			}
		})
	}

	// Two bids at the same amount racing: exactly one TrySetHighest succeeds.
	t.Run("concurrent_same_amount_single_winner", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		require.NoError(t, store.AddAuction(newTestAuction("auction1", start)))

		workers := 16
		var wg sync.WaitGroup
		accepted := make([]bool, workers)

		for i := 0; i < workers; i++ {
			bidID := fmt.Sprintf("bid%d", i)
			require.NoError(t, store.CreateBid(newTestBid(bidID, "auction1", fmt.Sprintf("bidder%d", i), 800, model.BidAuthorized, now)))
		}
		for i := 0; i < workers; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := store.TrySetHighest("auction1", fmt.Sprintf("bid%d", i), 800, now)
				require.NoError(t, err)
				accepted[i] = res.Accepted
			}()
		}
		wg.Wait()

		wins := 0
		for _, ok := range accepted {
			if ok {
				wins++
			}
		}
		require.Equal(t, 1, wins, "exactly one equal-amount bid may win the conditional update")
	})
}

// Tests RecomputeHighest reconciliation
func TestMemoryStore_RecomputeHighest(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := start.Add(3 * time.Hour)

	seed := func(t *testing.T) *MemoryStore {
		store := NewMemoryStore()
		require.NoError(t, store.AddAuction(newTestAuction("auction1", start)))
		require.NoError(t, store.CreateBid(newTestBid("bidX", "auction1", "X", 750, model.BidAuthorized, now)))
		require.NoError(t, store.CreateBid(newTestBid("bidY", "auction1", "Y", 800, model.BidAuthorized, now)))

		_, err := store.TrySetHighest("auction1", "bidX", 750, now)
		require.NoError(t, err)
		res, err := store.TrySetHighest("auction1", "bidY", 800, now)
		require.NoError(t, err)
		require.True(t, res.Accepted)
		return store
	}

	t.Run("demotes_to_next_highest_after_cancellation", func(t *testing.T) {
		t.Parallel()

		store := seed(t)
		_, err := store.TransitionBid("bidY", model.BidAuthorized, model.BidCancelled)
		require.NoError(t, err)

		a, err := store.RecomputeHighest("auction1")
		require.NoError(t, err)
		require.NotNil(t, a.HighestBidAmount)
		require.Equal(t, 750.0, *a.HighestBidAmount)
		require.Equal(t, "X", *a.HighestBidderID)
	})

	t.Run("clears_cache_when_no_authorized_bids_remain", func(t *testing.T) {
		t.Parallel()

		store := seed(t)
		_, err := store.TransitionBid("bidY", model.BidAuthorized, model.BidCancelled)
		require.NoError(t, err)
		_, err = store.TransitionBid("bidX", model.BidAuthorized, model.BidCancelled)
		require.NoError(t, err)

		a, err := store.RecomputeHighest("auction1")
		require.NoError(t, err)
		require.Nil(t, a.HighestBidAmount)
		require.Nil(t, a.HighestBidderID)
	})

	t.Run("idempotent_without_intervening_writes", func(t *testing.T) {
		t.Parallel()

		store := seed(t)
		first, err := store.RecomputeHighest("auction1")
		require.NoError(t, err)
		second, err := store.RecomputeHighest("auction1")
		require.NoError(t, err)
		require.Equal(t, first.HighestBidAmount, second.HighestBidAmount)
		require.Equal(t, first.HighestBidderID, second.HighestBidderID)
	})

	t.Run("cache_equals_max_authorized", func(t *testing.T) {
		t.Parallel()

		store := seed(t)
		a, err := store.RecomputeHighest("auction1")
		require.NoError(t, err)

		bids, err := store.GetBidsByAuction("auction1")
		require.NoError(t, err)
		max := 0.0
		for _, b := range bids {
			if b.State == model.BidAuthorized && b.Amount > max {
				max = b.Amount
			}
		}
		require.NotNil(t, a.HighestBidAmount)
		require.Equal(t, max, *a.HighestBidAmount)
	})
}

// Tests TransitionBid compare-and-set
func TestMemoryStore_TransitionBid(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("transition_succeeds_from_expected_state", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		require.NoError(t, store.AddAuction(newTestAuction("auction1", start)))
		require.NoError(t, store.CreateBid(newTestBid("bid1", "auction1", "X", 750, model.BidPending, start)))

		b, err := store.TransitionBid("bid1", model.BidPending, model.BidAuthorizing)
		require.NoError(t, err)
		require.Equal(t, model.BidAuthorizing, b.State)
	})

	t.Run("stale_from_state_conflicts", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		require.NoError(t, store.AddAuction(newTestAuction("auction1", start)))
		require.NoError(t, store.CreateBid(newTestBid("bid1", "auction1", "X", 750, model.BidCancelled, start)))

		_, err := store.TransitionBid("bid1", model.BidAuthorizing, model.BidAuthorized)
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrBidStateConflict))
	})

	t.Run("concurrent_transitions_single_winner", func(t *testing.T) {
		t.Parallel()

		// Timeout sweep and late confirmation race on the same Authorizing
		// bid: only one transition may take effect.
		store := NewMemoryStore()
		require.NoError(t, store.AddAuction(newTestAuction("auction1", start)))
		require.NoError(t, store.CreateBid(newTestBid("bid1", "auction1", "X", 750, model.BidAuthorizing, start)))

		var wg sync.WaitGroup
		results := make([]error, 2)
		targets := []model.BidState{model.BidAuthorized, model.BidCancelled}
		for i := range targets {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, results[i] = store.TransitionBid("bid1", model.BidAuthorizing, targets[i])
			}()
		}
		wg.Wait()

		succeeded := 0
		for _, err := range results {
			if err == nil {
				succeeded++
			} else {
				require.True(t, errors.Is(err, auctionerrors.ErrBidStateConflict))
			}
		}
		require.Equal(t, 1, succeeded)
	})
}

// Tests queries used by the sweeper
func TestMemoryStore_SweeperQueries(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := start.Add(30 * time.Hour)

	store := NewMemoryStore()
	expired := newTestAuction("expired", start) // ends at start+24h
	running := newTestAuction("running", start)
	running.EndTime = start.Add(48 * time.Hour)
	settled := newTestAuction("settled", start)
	settled.Status = model.AuctionEnded
	require.NoError(t, store.AddAuction(expired))
	require.NoError(t, store.AddAuction(running))
	require.NoError(t, store.AddAuction(settled))

	require.NoError(t, store.CreateBid(newTestBid("stale", "running", "X", 750, model.BidAuthorizing, now.Add(-20*time.Minute))))
	require.NoError(t, store.CreateBid(newTestBid("fresh", "running", "Y", 760, model.BidAuthorizing, now.Add(-2*time.Minute))))

	t.Run("lists_only_expired_active_auctions", func(t *testing.T) {
		auctions, err := store.ListExpiredActiveAuctions(now)
		require.NoError(t, err)
		require.Len(t, auctions, 1)
		require.Equal(t, "expired", auctions[0].AuctionID)
	})

	t.Run("lists_only_stale_authorizing_bids", func(t *testing.T) {
		bids, err := store.ListBidsInStateBefore(model.BidAuthorizing, now.Add(-15*time.Minute))
		require.NoError(t, err)
		require.Len(t, bids, 1)
		require.Equal(t, "stale", bids[0].BidID)
	})

	t.Run("mark_ended_runs_once", func(t *testing.T) {
		a, err := store.MarkAuctionEnded("expired")
		require.NoError(t, err)
		require.Equal(t, model.AuctionEnded, a.Status)

		_, err = store.MarkAuctionEnded("expired")
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrAuctionEnded))
	})
}

// Tests the AttachHoldRef state guard
func TestMemoryStore_AttachHoldRef(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := start.Add(time.Hour)

	tests := []struct {
		name    string
		state   model.BidState
		wantErr error
	}{
		{name: "authorizing_accepts_hold", state: model.BidAuthorizing},
		{name: "cancelled_rejects_hold", state: model.BidCancelled, wantErr: auctionerrors.ErrBidStateConflict},
		{name: "pending_rejects_hold", state: model.BidPending, wantErr: auctionerrors.ErrBidStateConflict},
		{name: "authorized_rejects_hold", state: model.BidAuthorized, wantErr: auctionerrors.ErrBidStateConflict},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := NewMemoryStore()
			require.NoError(t, store.AddAuction(newTestAuction("auction1", start)))
			require.NoError(t, store.CreateBid(newTestBid("bid1", "auction1", "X", 750, tc.state, now)))

			err := store.AttachHoldRef("bid1", "hold-1")

			b, getErr := store.GetBid("bid1")
			require.NoError(t, getErr)

			if tc.wantErr != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.wantErr))
				require.Empty(t, b.PaymentHoldRef)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "hold-1", b.PaymentHoldRef)
		})
	}

	t.Run("unknown_bid", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		err := store.AttachHoldRef("ghost", "hold-1")
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrBidNotFound))
	})
}
