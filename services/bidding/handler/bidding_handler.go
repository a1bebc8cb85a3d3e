package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"auction-engine/internal/lifecycle"
	model "auction-engine/internal/models"
	"auction-engine/services/bidding/helpers"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
)

// BidderIDKey is the gin context key the identity middleware stores the
// caller's bidder ID under.
const BidderIDKey = "bidder_id"

type BiddingServiceInterface interface {
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64) (model.Bid, error)
	ConfirmBid(ctx context.Context, bidID string) (lifecycle.ConfirmResult, error)
	CancelBid(ctx context.Context, bidID string) error
	CurrentPrice(ctx context.Context, auctionID string) (lifecycle.PriceQuote, error)
	BidsForAuction(auctionID string) ([]model.Bid, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

func toBidResponse(bid model.Bid) helpers.BidResponse {
	return helpers.BidResponse{
		BidID:          bid.BidID,
		AuctionID:      bid.AuctionID,
		BidderID:       bid.BidderID,
		Amount:         bid.Amount,
		State:          string(bid.State),
		PaymentHoldRef: bid.PaymentHoldRef,
		CreatedAt:      bid.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// PlaceBidHandler handles POST /auctions/:auction_id/bids
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	auctionID := c.Param("auction_id")
	bidderID := c.GetString(BidderIDKey)

	bid, err := h.service.PlaceBid(c.Request.Context(), auctionID, bidderID, req.Amount)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("PlaceBidHandler: failed to place bid", map[string]any{
			"handler":    "PlaceBidHandler",
			"auction_id": auctionID,
			"bidder_id":  bidderID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, toBidResponse(bid), "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": bid.AuctionID,
		"bidder_id":  bidderID,
		"amount":     bid.Amount,
	})
}

// ConfirmBidHandler handles POST /bids/:bid_id/confirm
func (h *BiddingHandler) ConfirmBidHandler(c *gin.Context) {
	bidID := c.Param("bid_id")

	res, err := h.service.ConfirmBid(c.Request.Context(), bidID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ConfirmBidHandler: confirmation failed", map[string]any{"bid_id": bidID, "error": err.Error()})
		return
	}

	resp := helpers.ConfirmBidResponse{
		BidID:          bidID,
		Accepted:       res.Accepted,
		CurrentHighest: res.CurrentHighest,
		State:          string(res.State),
	}

	utils.JSONResponse(c, http.StatusOK, resp, "bid confirmation processed")
	helpers.LogSuccess("ConfirmBidHandler", "bid confirmation processed", map[string]any{
		"bid_id":          bidID,
		"accepted":        res.Accepted,
		"current_highest": res.CurrentHighest,
	})
}

// CancelBidHandler handles POST /bids/:bid_id/cancel
func (h *BiddingHandler) CancelBidHandler(c *gin.Context) {
	bidID := c.Param("bid_id")

	if err := h.service.CancelBid(c.Request.Context(), bidID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("CancelBidHandler: cancellation failed", map[string]any{"bid_id": bidID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"bid_id": bidID}, "bid cancelled successfully")
	helpers.LogSuccess("CancelBidHandler", "bid cancelled successfully", map[string]any{"bid_id": bidID})
}

// GetCurrentPriceHandler handles GET /auctions/:auction_id/price
func (h *BiddingHandler) GetCurrentPriceHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	quote, err := h.service.CurrentPrice(c.Request.Context(), auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetCurrentPriceHandler: price resolution failed", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	resp := helpers.PriceResponse{
		AuctionID:           auctionID,
		CurrentPrice:        quote.Amount,
		HasActiveHighestBid: quote.HasActiveHighestBid,
	}

	utils.JSONResponse(c, http.StatusOK, resp, "current price retrieved successfully")
}

// GetBidsByAuctionHandler handles GET /auctions/:auction_id/bids
func (h *BiddingHandler) GetBidsByAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	bids, err := h.service.BidsForAuction(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetBidsByAuctionHandler: error retrieving bids", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, toBidResponse(b))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByAuctionHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(resp),
	})
}
