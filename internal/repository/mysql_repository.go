package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"
	"auction-engine/internal/pricing"
)

// MySQLStore is the durable implementation of AuctionStore. The conditional
// highest-bid update and the recompute path each run inside a single
// transaction that locks the auction row with SELECT ... FOR UPDATE, so two
// bids arriving within the same millisecond serialize on the row lock and
// exactly one can win. All timestamps are stored in UTC.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore returns a MySQLStore bound to the provided database.
func NewMySQLStore(db *sql.DB) *MySQLStore { return &MySQLStore{db: db} }

const opTimeout = 5 * time.Second

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

// Migrate creates the auctions and bids tables when they do not exist.
func (r *MySQLStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS auctions (
			id                 VARCHAR(36) PRIMARY KEY,
			title              VARCHAR(255) NOT NULL DEFAULT '',
			starting_price     DOUBLE NOT NULL,
			reserve_price      DOUBLE NULL,
			price_decrement    DOUBLE NOT NULL,
			decrement_interval ENUM('hour','day') NOT NULL,
			start_time         DATETIME NOT NULL,
			end_time           DATETIME NOT NULL,
			status             ENUM('active','ended') NOT NULL DEFAULT 'active',
			highest_bid_amount DOUBLE NULL,
			highest_bidder_id  VARCHAR(64) NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bids (
			id               VARCHAR(36) PRIMARY KEY,
			auction_id       VARCHAR(36) NOT NULL,
			bidder_id        VARCHAR(64) NOT NULL,
			amount           DOUBLE NOT NULL,
			state            VARCHAR(16) NOT NULL,
			payment_hold_ref VARCHAR(128) NULL,
			created_at       DATETIME NOT NULL,
			INDEX idx_bids_auction (auction_id),
			INDEX idx_bids_state_created (state, created_at)
		)`,
	}
	for _, q := range stmts {
		if _, err := r.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

const auctionColumns = `id, title, starting_price, reserve_price, price_decrement,
	decrement_interval, start_time, end_time, status, highest_bid_amount, highest_bidder_id`

type auctionScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuction(row auctionScanner) (model.Auction, error) {
	var a model.Auction
	var reserve, highestAmount sql.NullFloat64
	var highestBidder sql.NullString
	err := row.Scan(
		&a.AuctionID, &a.Title, &a.StartingPrice, &reserve, &a.PriceDecrement,
		&a.DecrementInterval, &a.StartTime, &a.EndTime, &a.Status, &highestAmount, &highestBidder,
	)
	if err != nil {
		return model.Auction{}, err
	}
	if reserve.Valid {
		v := reserve.Float64
		a.ReservePrice = &v
	}
	if highestAmount.Valid {
		v := highestAmount.Float64
		a.HighestBidAmount = &v
	}
	if highestBidder.Valid {
		v := highestBidder.String
		a.HighestBidderID = &v
	}
	return a, nil
}

const bidColumns = `id, auction_id, bidder_id, amount, state, payment_hold_ref, created_at`

func scanBid(row auctionScanner) (model.Bid, error) {
	var b model.Bid
	var holdRef sql.NullString
	err := row.Scan(&b.BidID, &b.AuctionID, &b.BidderID, &b.Amount, &b.State, &holdRef, &b.CreatedAt)
	if err != nil {
		return model.Bid{}, err
	}
	if holdRef.Valid {
		b.PaymentHoldRef = holdRef.String
	}
	return b, nil
}

// AddAuction inserts an auction row with its immutable catalog parameters.
func (r *MySQLStore) AddAuction(a model.Auction) error {
	ctx, cancel := opContext()
	defer cancel()

	const q = `INSERT INTO auctions (` + auctionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var reserve interface{}
	if a.ReservePrice != nil {
		reserve = *a.ReservePrice
	}
	var highestAmount, highestBidder interface{}
	if a.HighestBidAmount != nil {
		highestAmount = *a.HighestBidAmount
	}
	if a.HighestBidderID != nil {
		highestBidder = *a.HighestBidderID
	}
	_, err := r.db.ExecContext(ctx, q,
		a.AuctionID, a.Title, a.StartingPrice, reserve, a.PriceDecrement,
		a.DecrementInterval, a.StartTime.UTC(), a.EndTime.UTC(), a.Status, highestAmount, highestBidder,
	)
	if err != nil {
		return fmt.Errorf("add auction %s: %w", a.AuctionID, err)
	}
	return nil
}

// GetAuction returns an auction by ID
func (r *MySQLStore) GetAuction(auctionID string) (model.Auction, error) {
	ctx, cancel := opContext()
	defer cancel()

	const q = `SELECT ` + auctionColumns + ` FROM auctions WHERE id = ?`
	a, err := scanAuction(r.db.QueryRowContext(ctx, q, auctionID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, err)
	}
	return a, nil
}

// ListExpiredActiveAuctions returns active auctions whose end time has passed
func (r *MySQLStore) ListExpiredActiveAuctions(now time.Time) ([]model.Auction, error) {
	ctx, cancel := opContext()
	defer cancel()

	const q = `SELECT ` + auctionColumns + ` FROM auctions WHERE status = 'active' AND end_time <= ?`
	rows, err := r.db.QueryContext(ctx, q, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("list expired auctions: %w", err)
	}
	defer rows.Close()

	var auctions []model.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("list expired auctions: %w", err)
		}
		auctions = append(auctions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expired auctions: %w", err)
	}
	return auctions, nil
}

// MarkAuctionEnded transitions an auction to ended exactly once. The guarded
// UPDATE makes concurrent settlement attempts race safely: only the caller
// whose UPDATE affected a row proceeds with settlement.
func (r *MySQLStore) MarkAuctionEnded(auctionID string) (model.Auction, error) {
	ctx, cancel := opContext()
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE auctions SET status = 'ended' WHERE id = ? AND status = 'active'`, auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("end auction %s: %w", auctionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Auction{}, fmt.Errorf("end auction %s: %w", auctionID, err)
	}
	if n == 0 {
		// Either missing or already ended; distinguish for the caller.
		if _, getErr := r.GetAuction(auctionID); getErr != nil {
			return model.Auction{}, getErr
		}
		return model.Auction{}, fmt.Errorf("end auction %s: %w", auctionID, auctionerrors.ErrAuctionEnded)
	}
	return r.GetAuction(auctionID)
}

// CreateBid records a new bid row
func (r *MySQLStore) CreateBid(bid model.Bid) error {
	ctx, cancel := opContext()
	defer cancel()

	const q = `INSERT INTO bids (` + bidColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	var holdRef interface{}
	if bid.PaymentHoldRef != "" {
		holdRef = bid.PaymentHoldRef
	}
	_, err := r.db.ExecContext(ctx, q,
		bid.BidID, bid.AuctionID, bid.BidderID, bid.Amount, bid.State, holdRef, bid.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create bid %s: %w", bid.BidID, err)
	}
	return nil
}

// GetBid returns a bid by ID
func (r *MySQLStore) GetBid(bidID string) (model.Bid, error) {
	ctx, cancel := opContext()
	defer cancel()

	const q = `SELECT ` + bidColumns + ` FROM bids WHERE id = ?`
	b, err := scanBid(r.db.QueryRowContext(ctx, q, bidID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bid{}, fmt.Errorf("get bid %s: %w", bidID, auctionerrors.ErrBidNotFound)
	}
	if err != nil {
		return model.Bid{}, fmt.Errorf("get bid %s: %w", bidID, err)
	}
	return b, nil
}

// GetBidsByAuction returns all bids for an auction in creation order
func (r *MySQLStore) GetBidsByAuction(auctionID string) ([]model.Bid, error) {
	ctx, cancel := opContext()
	defer cancel()

	const q = `SELECT ` + bidColumns + ` FROM bids WHERE auction_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, auctionID)
	if err != nil {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, err)
	}
	defer rows.Close()

	var bids []model.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, err)
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// TransitionBid moves a bid between lifecycle states. The state guard lives
// in the WHERE clause, so the compare-and-set is a single statement.
func (r *MySQLStore) TransitionBid(bidID string, from, to model.BidState) (model.Bid, error) {
	ctx, cancel := opContext()
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE bids SET state = ? WHERE id = ? AND state = ?`, to, bidID, from)
	if err != nil {
		return model.Bid{}, fmt.Errorf("transition bid %s: %w", bidID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Bid{}, fmt.Errorf("transition bid %s: %w", bidID, err)
	}
	if n == 0 {
		b, getErr := r.GetBid(bidID)
		if getErr != nil {
			return model.Bid{}, getErr
		}
		return model.Bid{}, fmt.Errorf("transition bid %s from %s to %s (currently %s): %w",
			bidID, from, to, b.State, auctionerrors.ErrBidStateConflict)
	}
	return r.GetBid(bidID)
}

// AttachHoldRef stores the payment hold handle on a bid still in Authorizing.
// The state predicate in the UPDATE rejects late attaches to bids the timeout
// sweep already cancelled.
func (r *MySQLStore) AttachHoldRef(bidID, holdRef string) error {
	ctx, cancel := opContext()
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE bids SET payment_hold_ref = ? WHERE id = ? AND state = ?`,
		holdRef, bidID, model.BidAuthorizing)
	if err != nil {
		return fmt.Errorf("attach hold to bid %s: %w", bidID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach hold to bid %s: %w", bidID, err)
	}
	if n == 0 {
		b, getErr := r.GetBid(bidID)
		if getErr != nil {
			return getErr
		}
		return fmt.Errorf("attach hold to bid %s (currently %s): %w",
			bidID, b.State, auctionerrors.ErrBidStateConflict)
	}
	return nil
}

// ListBidsInStateBefore returns bids stuck in a state since before the cutoff
func (r *MySQLStore) ListBidsInStateBefore(state model.BidState, cutoff time.Time) ([]model.Bid, error) {
	ctx, cancel := opContext()
	defer cancel()

	const q = `SELECT ` + bidColumns + ` FROM bids WHERE state = ? AND created_at < ?`
	rows, err := r.db.QueryContext(ctx, q, state, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("list %s bids: %w", state, err)
	}
	defer rows.Close()

	var bids []model.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("list %s bids: %w", state, err)
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s bids: %w", state, err)
	}
	return bids, nil
}

// TrySetHighest performs the conditional highest-bid update inside one
// transaction holding a row lock on the auction. The price comparison and the
// cache write see the same locked snapshot, which is what makes the update a
// single serializable step.
func (r *MySQLStore) TrySetHighest(auctionID, bidID string, amount float64, now time.Time) (HighestResult, error) {
	ctx, cancel := opContext()
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return HighestResult{}, fmt.Errorf("set highest for auction %s: %w", auctionID, err)
	}
	defer tx.Rollback()

	const lockQ = `SELECT ` + auctionColumns + ` FROM auctions WHERE id = ? FOR UPDATE`
	a, err := scanAuction(tx.QueryRowContext(ctx, lockQ, auctionID))
	if errors.Is(err, sql.ErrNoRows) {
		return HighestResult{}, fmt.Errorf("set highest for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return HighestResult{}, fmt.Errorf("set highest for auction %s: %w", auctionID, err)
	}

	var bidderID string
	err = tx.QueryRowContext(ctx, `SELECT bidder_id FROM bids WHERE id = ?`, bidID).Scan(&bidderID)
	if errors.Is(err, sql.ErrNoRows) {
		return HighestResult{}, fmt.Errorf("set highest for auction %s: %w", auctionID, auctionerrors.ErrBidNotFound)
	}
	if err != nil {
		return HighestResult{}, fmt.Errorf("set highest for auction %s: %w", auctionID, err)
	}

	if a.Ended(now) {
		return HighestResult{}, fmt.Errorf("set highest for auction %s: %w", auctionID, auctionerrors.ErrAuctionEnded)
	}

	current := pricing.CurrentPrice(a, now)
	if amount <= current {
		res := HighestResult{Accepted: false, CurrentHighest: current}
		if a.HighestBidderID != nil {
			res.HighestBidderID = *a.HighestBidderID
		}
		if err := tx.Commit(); err != nil {
			return HighestResult{}, fmt.Errorf("set highest for auction %s: %w", auctionID, err)
		}
		return res, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE auctions SET highest_bid_amount = ?, highest_bidder_id = ? WHERE id = ?`,
		amount, bidderID, auctionID)
	if err != nil {
		return HighestResult{}, fmt.Errorf("set highest for auction %s: %w", auctionID, err)
	}
	if err := tx.Commit(); err != nil {
		return HighestResult{}, fmt.Errorf("set highest for auction %s: %w", auctionID, err)
	}
	return HighestResult{Accepted: true, CurrentHighest: amount, HighestBidderID: bidderID}, nil
}

// RecomputeHighest rescans authorized bids under the auction row lock and
// rewrites the cached highest, clearing it when none remain.
func (r *MySQLStore) RecomputeHighest(auctionID string) (model.Auction, error) {
	ctx, cancel := opContext()
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Auction{}, fmt.Errorf("recompute highest for auction %s: %w", auctionID, err)
	}
	defer tx.Rollback()

	const lockQ = `SELECT ` + auctionColumns + ` FROM auctions WHERE id = ? FOR UPDATE`
	a, err := scanAuction(tx.QueryRowContext(ctx, lockQ, auctionID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Auction{}, fmt.Errorf("recompute highest for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, fmt.Errorf("recompute highest for auction %s: %w", auctionID, err)
	}

	const maxQ = `SELECT b.amount, b.bidder_id FROM bids b
		WHERE b.auction_id = ? AND b.state = ?
		ORDER BY b.amount DESC LIMIT 1`
	var amount float64
	var bidderID string
	err = tx.QueryRowContext(ctx, maxQ, auctionID, model.BidAuthorized).Scan(&amount, &bidderID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			`UPDATE auctions SET highest_bid_amount = NULL, highest_bidder_id = NULL WHERE id = ?`,
			auctionID); err != nil {
			return model.Auction{}, fmt.Errorf("recompute highest for auction %s: %w", auctionID, err)
		}
		a.HighestBidAmount = nil
		a.HighestBidderID = nil
	case err != nil:
		return model.Auction{}, fmt.Errorf("recompute highest for auction %s: %w", auctionID, err)
	default:
		if _, err := tx.ExecContext(ctx,
			`UPDATE auctions SET highest_bid_amount = ?, highest_bidder_id = ? WHERE id = ?`,
			amount, bidderID, auctionID); err != nil {
			return model.Auction{}, fmt.Errorf("recompute highest for auction %s: %w", auctionID, err)
		}
		a.HighestBidAmount = &amount
		a.HighestBidderID = &bidderID
	}

	if err := tx.Commit(); err != nil {
		return model.Auction{}, fmt.Errorf("recompute highest for auction %s: %w", auctionID, err)
	}
	return a, nil
}
