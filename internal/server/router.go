package server

import (
	"errors"

	"auction-engine/services/bidding/handler"

	"github.com/gin-gonic/gin"
)

var errMissingBidderID = errors.New("missing bidder identity")

// SetupRouter configures all Gin routes for the application
func SetupRouter(biddingService handler.BiddingServiceInterface) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	biddingHandler := handler.NewBiddingHandler(biddingService)

	auctions := router.Group("/auctions")
	{
		auctions.GET("/:auction_id/price", biddingHandler.GetCurrentPriceHandler)
		auctions.GET("/:auction_id/bids", biddingHandler.GetBidsByAuctionHandler)
		auctions.POST("/:auction_id/bids", BidderIdentityMiddleware, biddingHandler.PlaceBidHandler)
	}

	bids := router.Group("/bids")
	{
		bids.POST("/:bid_id/confirm", biddingHandler.ConfirmBidHandler)
		bids.POST("/:bid_id/cancel", biddingHandler.CancelBidHandler)
	}

	return router
}
