// Package pricing computes the time-decayed floor price of a Dutch auction
// and resolves the single "current price" shown to all viewers. Every
// function is a total function of its arguments and performs no I/O, so the
// same inputs always produce the same price regardless of where the
// computation runs.
package pricing

import (
	"time"

	"auction-engine/internal/models"
)

// FloorPrice returns the decayed price floor of an auction at the given
// instant: the starting price minus one decrement per fully elapsed interval,
// never below the reserve price. No-reserve auctions are clamped at zero.
func FloorPrice(a models.Auction, now time.Time) float64 {
	reserve := 0.0
	if a.ReservePrice != nil {
		reserve = *a.ReservePrice
	}

	elapsed := now.Sub(a.StartTime)
	if elapsed < 0 {
		elapsed = 0
	}
	intervals := float64(elapsed / a.DecrementInterval.Duration())

	price := a.StartingPrice - a.PriceDecrement*intervals
	if price < reserve {
		return reserve
	}
	return price
}

// CurrentPrice returns the authoritative display price: the cached highest
// authorized bid when one exists, otherwise the decayed floor. After the
// auction's end time the price is frozen at its value as of EndTime.
func CurrentPrice(a models.Auction, now time.Time) float64 {
	if a.HighestBidAmount != nil {
		return *a.HighestBidAmount
	}
	if now.After(a.EndTime) {
		now = a.EndTime
	}
	return FloorPrice(a, now)
}

// IsValidBidAmount reports whether a new bid may be placed: it must strictly
// exceed whichever of the decayed floor and the current highest authorized
// bid is larger. Equal amounts are rejected.
func IsValidBidAmount(a models.Auction, amount float64, now time.Time) bool {
	return amount > CurrentPrice(a, now)
}
