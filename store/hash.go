package store

import (
	"crypto/sha256"
	"fmt"
)

// genesisDigest anchors every auction's event chain.
const genesisDigest = "genesis"

// ComputeEventDigest chains an event onto its predecessor so a journal row
// cannot be altered or dropped without breaking every later digest.
//
// Formula: SHA256(prev_digest + "|" + auction_id + "|" + kind + "|" + SHA256(payload))
//
// The payload is hashed first so the chain input stays fixed-width
// regardless of how large an event body grows.
func ComputeEventDigest(prevDigest string, auctionID uint64, kind string, payload []byte) string {
	body := sha256.Sum256(payload)
	data := fmt.Sprintf("%s|%d|%s|%x", prevDigest, auctionID, kind, body)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
