// Package store persists an append-only journal of engine activity in
// SQLite, plus a CBOR archive of each auction's final ledger snapshot.
// The journal is an audit trail, not the source of truth: the engine
// never reads it back to make a decision.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	_ "github.com/glebarez/go-sqlite"

	"github.com/cloudx-io/nftauctionsale/core"
)

// Event kinds as stored in the journal.
const (
	KindAuctionCreated    = "auction_created"
	KindBidPlaced         = "bid_placed"
	KindBidEvicted        = "bid_evicted"
	KindBidIncreased      = "bid_increased"
	KindRewardClaimed     = "reward_claimed"
	KindProceedsWithdrawn = "proceeds_withdrawn"
)

// Journal records engine activity in SQLite. It satisfies core.Recorder.
type Journal struct {
	db *sql.DB
}

// Event is one journal row as read back for inspection.
type Event struct {
	Seq       int64           `json:"seq"`
	EventID   string          `json:"event_id"`
	AuctionID uint64          `json:"auction_id"`
	Kind      string          `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Digest    string          `json:"digest"`
}

// Open creates or opens a journal database at dbPath with WAL mode enabled.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS auctions (
			id INTEGER PRIMARY KEY,
			seller TEXT NOT NULL,
			payment_token TEXT NOT NULL,
			prize_contract TEXT NOT NULL,
			unit_id INTEGER NOT NULL,
			reserve TEXT NOT NULL,
			capacity INTEGER NOT NULL,
			start_ts INTEGER NOT NULL,
			end_ts INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id TEXT NOT NULL,
			auction_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			ts INTEGER NOT NULL,
			payload BLOB NOT NULL,
			digest TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_auction ON events(auction_id, seq);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			auction_id INTEGER PRIMARY KEY,
			taken_at INTEGER NOT NULL,
			body BLOB NOT NULL
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error { return j.db.Close() }

// appendEvent writes one event row, chaining its digest onto the last
// event of the same auction.
func (j *Journal) appendEvent(auctionID uint64, kind string, payload any, at time.Time) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}

	ctx := context.Background()
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	prev := genesisDigest
	var last sql.NullString
	err = tx.QueryRowContext(ctx,
		"SELECT digest FROM events WHERE auction_id = ? ORDER BY seq DESC LIMIT 1", auctionID,
	).Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read chain head: %w", err)
	}
	if last.Valid {
		prev = last.String
	}

	digest := ComputeEventDigest(prev, auctionID, kind, body)
	_, err = tx.ExecContext(ctx,
		"INSERT INTO events (event_id, auction_id, kind, ts, payload, digest) VALUES (?, ?, ?, ?, ?, ?)",
		uuid.NewString(), auctionID, kind, at.UnixMilli(), body, digest,
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s event: %w", kind, err)
	}
	return tx.Commit()
}

// AuctionCreated records the auction row and its creation event.
func (j *Journal) AuctionCreated(a core.Auction, at time.Time) error {
	_, err := j.db.Exec(
		`INSERT INTO auctions (id, seller, payment_token, prize_contract, unit_id, reserve, capacity, start_ts, end_ts, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Seller, a.Payment.Token, a.PrizeContract, a.UnitID, a.Reserve.String(),
		a.Capacity, a.StartTime.UnixMilli(), a.EndTime.UnixMilli(), at.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert auction: %w", err)
	}
	return j.appendEvent(a.ID, KindAuctionCreated, a, at)
}

type bidEventPayload struct {
	Bidder  string          `json:"bidder"`
	Price   decimal.Decimal `json:"price"`
	Receipt string          `json:"receipt,omitempty"`
}

// BidPlaced records an accepted bid and its deposit receipt.
func (j *Journal) BidPlaced(auctionID uint64, bidder string, price decimal.Decimal, receipt string, at time.Time) error {
	return j.appendEvent(auctionID, KindBidPlaced, bidEventPayload{Bidder: bidder, Price: price, Receipt: receipt}, at)
}

// BidEvicted records an eviction and its refund receipt.
func (j *Journal) BidEvicted(auctionID uint64, bidder string, refund decimal.Decimal, receipt string, at time.Time) error {
	return j.appendEvent(auctionID, KindBidEvicted, bidEventPayload{Bidder: bidder, Price: refund, Receipt: receipt}, at)
}

// BidIncreased records an in-place bid increase at its new total.
func (j *Journal) BidIncreased(auctionID uint64, bidder string, newPrice decimal.Decimal, receipt string, at time.Time) error {
	return j.appendEvent(auctionID, KindBidIncreased, bidEventPayload{Bidder: bidder, Price: newPrice, Receipt: receipt}, at)
}

// RewardClaimed records a winner collecting their unit.
func (j *Journal) RewardClaimed(auctionID uint64, bidder string, price decimal.Decimal, at time.Time) error {
	return j.appendEvent(auctionID, KindRewardClaimed, bidEventPayload{Bidder: bidder, Price: price}, at)
}

// ProceedsWithdrawn records a seller sweep of accrued proceeds.
func (j *Journal) ProceedsWithdrawn(auctionID uint64, seller string, amount decimal.Decimal, receipt string, at time.Time) error {
	return j.appendEvent(auctionID, KindProceedsWithdrawn, bidEventPayload{Bidder: seller, Price: amount, Receipt: receipt}, at)
}

// ListAuctions returns all recorded auction IDs in creation order.
func (j *Journal) ListAuctions(ctx context.Context) ([]uint64, error) {
	rows, err := j.db.QueryContext(ctx, "SELECT id FROM auctions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan auction id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// EventsFor returns the full event history of one auction in order.
func (j *Journal) EventsFor(ctx context.Context, auctionID uint64) ([]Event, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT seq, event_id, auction_id, kind, ts, payload, digest FROM events WHERE auction_id = ? ORDER BY seq",
		auctionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var ts int64
		if err := rows.Scan(&ev.Seq, &ev.EventID, &ev.AuctionID, &ev.Kind, &ts, &ev.Payload, &ev.Digest); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Timestamp = time.UnixMilli(ts).UTC()
		events = append(events, ev)
	}
	return events, rows.Err()
}

// VerifyChain recomputes the digest chain of one auction's events and
// reports the first row whose stored digest does not match. A nil error
// means the journal for that auction is intact.
func (j *Journal) VerifyChain(ctx context.Context, auctionID uint64) error {
	events, err := j.EventsFor(ctx, auctionID)
	if err != nil {
		return err
	}
	prev := genesisDigest
	for _, ev := range events {
		want := ComputeEventDigest(prev, ev.AuctionID, ev.Kind, ev.Payload)
		if ev.Digest != want {
			return fmt.Errorf("digest mismatch at seq %d (kind %s): journal has been altered", ev.Seq, ev.Kind)
		}
		prev = ev.Digest
	}
	return nil
}
