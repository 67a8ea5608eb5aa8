package ledger

import "errors"

var (
	// ErrUnknownSymbol means the signal named an instrument the engine
	// is not configured to track.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrNoOpenTrade means an exit arrived for a flat symbol (or a
	// trade ID that is not open). Benign: callers treat it as a no-op,
	// strategy state is untouched.
	ErrNoOpenTrade = errors.New("no open trade")
)
