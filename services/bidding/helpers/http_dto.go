package helpers

// Request/Response DTOs
type PlaceBidRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type BidResponse struct {
	BidID          string  `json:"bid_id"`
	AuctionID      string  `json:"auction_id"`
	BidderID       string  `json:"bidder_id"`
	Amount         float64 `json:"amount"`
	State          string  `json:"state"`
	PaymentHoldRef string  `json:"payment_hold_ref,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

type PriceResponse struct {
	AuctionID           string  `json:"auction_id"`
	CurrentPrice        float64 `json:"current_price"`
	HasActiveHighestBid bool    `json:"has_active_highest_bid"`
}

type ConfirmBidResponse struct {
	BidID          string  `json:"bid_id"`
	Accepted       bool    `json:"accepted"`
	CurrentHighest float64 `json:"current_highest"`
	State          string  `json:"state"`
}
