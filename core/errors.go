package core

import "errors"

// Every failure the engine reports maps to one of these sentinels; callers
// match with errors.Is. Transfer failures from either payment rail or the
// prize provider are wrapped in ErrTransferFailed.
var (
	ErrInvalidParameters = errors.New("invalid auction parameters")
	ErrAuctionNotFound   = errors.New("auction not found")
	ErrNotStarted        = errors.New("auction has not started")
	ErrAuctionOver       = errors.New("auction is over")
	ErrBelowReserve      = errors.New("bid below reserve price")
	ErrBidTooLow         = errors.New("bid too low to outrank an active bid")
	ErrNoActiveBid       = errors.New("bidder has no active bid")
	ErrNotEnded          = errors.New("auction has not ended")
	ErrNotAWinner        = errors.New("bidder is not a winner")
	ErrAlreadyClaimed    = errors.New("reward already claimed")
	ErrNotSeller         = errors.New("caller is not the auction seller")
	ErrTransferFailed    = errors.New("transfer failed")
)
