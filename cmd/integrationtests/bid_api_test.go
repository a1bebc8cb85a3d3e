package integrationtests

import (
	"context"
	"net/http"
	"testing"
	"time"

	model "auction-engine/internal/models"
	"auction-engine/services/bidding/helpers"

	"github.com/stretchr/testify/require"
)

// placeAndConfirm drives a bid through the full HTTP flow and returns its ID.
func placeAndConfirm(t *testing.T, env *testEnv, auctionID, bidderID string, amount float64) string {
	resp, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions/"+auctionID+"/bids", bidderID,
		helpers.PlaceBidRequest{Amount: amount})
	require.Equal(t, http.StatusCreated, w.Code)

	data := resp["data"].(map[string]any)
	bidID := data["bid_id"].(string)
	require.NotEmpty(t, bidID)

	_, w = ExecuteRequestAndParse(t, env.router, http.MethodPost, "/bids/"+bidID+"/confirm", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	return bidID
}

// Price endpoint tests
func TestGetCurrentPriceEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		auctionID  string
		wantStatus int
		wantPrice  float64
	}{
		{
			name:       "Decayed_Floor",
			auctionID:  "auction1",
			wantStatus: http.StatusOK,
			wantPrice:  700,
		},
		{
			name:       "Auction_Not_Found",
			auctionID:  "nonexistent",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := SetupTestEnv(t, sampleAuction("auction1"))
			resp, w := ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/"+tt.auctionID+"/price", "", nil)
			require.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusOK {
				data := resp["data"].(map[string]any)
				require.Equal(t, tt.wantPrice, data["current_price"])
				require.Equal(t, false, data["has_active_highest_bid"])
			}
		})
	}
}

// Place bid endpoint tests
func TestPlaceBidEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		bidderID   string
		request    any
		wantStatus int
	}{
		{
			name:       "Valid_Bid",
			bidderID:   "bidderX",
			request:    helpers.PlaceBidRequest{Amount: 750},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "Bid_At_Floor_Rejected",
			bidderID:   "bidderX",
			request:    helpers.PlaceBidRequest{Amount: 700},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "Missing_Identity_Header",
			bidderID:   "",
			request:    helpers.PlaceBidRequest{Amount: 750},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Invalid_JSON",
			bidderID:   "bidderX",
			request:    []byte("{amount: 'missing quotes'}"),
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := SetupTestEnv(t, sampleAuction("auction1"))
			resp, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions/auction1/bids", tt.bidderID, tt.request)
			require.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusCreated {
				data := resp["data"].(map[string]any)
				require.Equal(t, "auction1", data["auction_id"])
				require.Equal(t, "bidderX", data["bidder_id"])
				require.Equal(t, 750.0, data["amount"])
				require.Equal(t, "authorizing", data["state"])
				require.NotEmpty(t, data["payment_hold_ref"])

				_, err := time.Parse(time.RFC3339, data["created_at"].(string))
				require.NoError(t, err)
			}
		})
	}
}

// Full competitive flow: place, confirm, outbid, price follows the highest.
func TestCompetingBidsFlow(t *testing.T) {
	env := SetupTestEnv(t, sampleAuction("auction1"))

	placeAndConfirm(t, env, "auction1", "bidderX", 750)

	resp, w := ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/auction1/price", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]any)
	require.Equal(t, 750.0, data["current_price"])
	require.Equal(t, true, data["has_active_highest_bid"])

	// A matching amount no longer beats the current price.
	_, w = ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions/auction1/bids", "bidderY",
		helpers.PlaceBidRequest{Amount: 750})
	require.Equal(t, http.StatusConflict, w.Code)

	placeAndConfirm(t, env, "auction1", "bidderY", 800)

	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/auction1/price", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = resp["data"].(map[string]any)
	require.Equal(t, 800.0, data["current_price"])

	// Both standing bids appear in the history.
	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/auction1/bids", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	bids := resp["data"].([]any)
	require.Len(t, bids, 2)

	require.Len(t, env.recorder.HighestBidChanges(), 2)
}

// Cancelling the highest bid demotes the price to the next standing bid.
func TestCancelHighestBidFlow(t *testing.T) {
	env := SetupTestEnv(t, sampleAuction("auction1"))

	placeAndConfirm(t, env, "auction1", "bidderX", 750)
	bidY := placeAndConfirm(t, env, "auction1", "bidderY", 800)

	_, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/bids/"+bidY+"/cancel", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp, w := ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/auction1/price", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]any)
	require.Equal(t, 750.0, data["current_price"])

	cancels := env.recorder.BidCancellations()
	require.Len(t, cancels, 1)
	require.NotNil(t, cancels[0].CurrentHighestAmount)
	require.Equal(t, 750.0, *cancels[0].CurrentHighestAmount)
}

// Settlement over the HTTP-placed bids: winner captured, loser released.
func TestSettlementFlow(t *testing.T) {
	env := SetupTestEnv(t, sampleAuction("auction1"))

	bidX := placeAndConfirm(t, env, "auction1", "bidderX", 750)
	bidY := placeAndConfirm(t, env, "auction1", "bidderY", 800)

	require.NoError(t, env.service.SettleAuction(context.Background(), "auction1"))

	bX, err := env.store.GetBid(bidX)
	require.NoError(t, err)
	require.Equal(t, model.BidLost, bX.State)

	bY, err := env.store.GetBid(bidY)
	require.NoError(t, err)
	require.Equal(t, model.BidWon, bY.State)

	endings := env.recorder.AuctionEndings()
	require.Len(t, endings, 1)
	require.Equal(t, bidY, *endings[0].WinningBidID)
	require.Equal(t, 800.0, *endings[0].WinningAmount)

	// Placing after settlement is refused.
	_, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions/auction1/bids", "bidderZ",
		helpers.PlaceBidRequest{Amount: 900})
	require.Equal(t, http.StatusGone, w.Code)
}
