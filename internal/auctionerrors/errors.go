package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrBidNotFound     = errors.New("bid not found")
)

// business logic errors
var (
	ErrInvalidBid       = errors.New("invalid bid")
	ErrInvalidAmount    = errors.New("bid amount does not exceed current price")
	ErrAuctionEnded     = errors.New("auction has ended")
	ErrBidStateConflict = errors.New("bid is not in a state that allows this operation")
)

// payment collaborator errors
var (
	ErrPaymentDeclined = errors.New("payment authorization declined")
)
