package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/cloudx-io/nftauctionsale/core"
)

// SnapshotRecord is the archived final state of one auction's bid ledger,
// CBOR-encoded at rest. Decimal prices are stored as strings so the
// archive decodes identically on any platform.
type SnapshotRecord struct {
	AuctionID uint64          `cbor:"auction_id"`
	TakenAt   time.Time       `cbor:"taken_at"`
	Entries   []SnapshotEntry `cbor:"entries"`
}

// SnapshotEntry is one active bid in an archived snapshot.
type SnapshotEntry struct {
	Bidder string `cbor:"bidder"`
	Price  string `cbor:"price"`
}

// FinalSnapshot archives the final ledger snapshot for an auction. Called
// once by the engine when settlement state is first created; a repeat for
// the same auction overwrites, keeping the call idempotent.
func (j *Journal) FinalSnapshot(auctionID uint64, entries []core.BidEntry, at time.Time) error {
	record := SnapshotRecord{
		AuctionID: auctionID,
		TakenAt:   at.UTC(),
		Entries:   make([]SnapshotEntry, len(entries)),
	}
	for i, e := range entries {
		record.Entries[i] = SnapshotEntry{Bidder: e.Bidder, Price: e.Price.String()}
	}

	body, err := cbor.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err = j.db.Exec(
		`INSERT INTO snapshots (auction_id, taken_at, body) VALUES (?, ?, ?)
		 ON CONFLICT(auction_id) DO UPDATE SET taken_at=excluded.taken_at, body=excluded.body`,
		auctionID, at.UnixMilli(), body,
	)
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the archived final snapshot of an auction, or
// (nil, nil) when none has been taken yet.
func (j *Journal) LoadSnapshot(ctx context.Context, auctionID uint64) (*SnapshotRecord, error) {
	var body []byte
	err := j.db.QueryRowContext(ctx,
		"SELECT body FROM snapshots WHERE auction_id = ?", auctionID,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var record SnapshotRecord
	if err := cbor.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &record, nil
}
