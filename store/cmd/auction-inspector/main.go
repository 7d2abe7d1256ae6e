package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cloudx-io/nftauctionsale/store"
)

func main() {
	// Define CLI flags
	var (
		dbPath       = flag.String("db", "", "Path to the auction journal database")
		auctionID    = flag.Uint64("auction", 0, "Inspect a single auction (default: all)")
		outputFormat = flag.String("format", "text", "Output format: text or json")
		verify       = flag.Bool("verify", false, "Verify the event digest chain")
		help         = flag.Bool("help", false, "Show usage information")
	)

	flag.Parse()

	if *help {
		showUsage()
		os.Exit(0)
	}

	if *dbPath == "" {
		showUsage()
		fmt.Fprintf(os.Stderr, "\nError: --db is required\n")
		os.Exit(1)
	}

	journal, err := store.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening journal: %v\n", err)
		os.Exit(2)
	}
	defer journal.Close()

	ctx := context.Background()

	ids := []uint64{*auctionID}
	if *auctionID == 0 {
		ids, err = journal.ListAuctions(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing auctions: %v\n", err)
			os.Exit(2)
		}
	}

	failed := false
	for _, id := range ids {
		if err := inspectAuction(ctx, journal, id, *outputFormat, *verify); err != nil {
			fmt.Fprintf(os.Stderr, "Auction %d: %v\n", id, err)
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
	os.Exit(0)
}

func inspectAuction(ctx context.Context, journal *store.Journal, id uint64, format string, verify bool) error {
	events, err := journal.EventsFor(ctx, id)
	if err != nil {
		return err
	}
	snapshot, err := journal.LoadSnapshot(ctx, id)
	if err != nil {
		return err
	}

	if format == "json" {
		out := map[string]any{
			"auction_id": id,
			"events":     events,
		}
		if snapshot != nil {
			out["final_snapshot"] = snapshot
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(out); err != nil {
			return err
		}
	} else {
		fmt.Printf("Auction %d: %d event(s)\n", id, len(events))
		for _, ev := range events {
			fmt.Printf("  #%d %s %s %s\n", ev.Seq, ev.Timestamp.Format("2006-01-02T15:04:05.000Z"), ev.Kind, string(ev.Payload))
		}
		if snapshot != nil {
			fmt.Printf("  Final snapshot (%s):\n", snapshot.TakenAt.Format("2006-01-02T15:04:05.000Z"))
			for rank, entry := range snapshot.Entries {
				fmt.Printf("    %d. %s @ %s\n", rank+1, entry.Bidder, entry.Price)
			}
		}
	}

	if verify {
		if err := journal.VerifyChain(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Auction %d: digest chain OK\n", id)
	}
	return nil
}

func showUsage() {
	fmt.Println("Auction Journal Inspector")
	fmt.Println()
	fmt.Println("Reads an auction engine journal database and prints per-auction event")
	fmt.Println("history and the archived final bid snapshot.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  auction-inspector --db <path> [options]")
	fmt.Println()
	fmt.Println("Required Flags:")
	fmt.Println("  --db <path>           Journal database file")
	fmt.Println()
	fmt.Println("Optional Flags:")
	fmt.Println("  --auction <id>        Inspect a single auction (default: all)")
	fmt.Println("  --format <text|json>  Output format (default: text)")
	fmt.Println("  --verify              Recompute and check the event digest chain")
	fmt.Println("  --help                Show this help message")
	fmt.Println()
	fmt.Println("Exit Codes:")
	fmt.Println("  0 - Success (and chain verified, when --verify)")
	fmt.Println("  1 - Inspection or verification failure")
	fmt.Println("  2 - Invalid input or runtime error")
}
