// Package journal is the durable record of closed trades and equity
// snapshots. The engine writes through the Recorder interface; the CLI
// and query API read back through the SQLite backend.
package journal

import "time"

// TradeRecord is one closed trade as persisted.
type TradeRecord struct {
	TradeID      string
	Symbol       string
	Side         string
	EntryPrice   float64
	ExitPrice    float64
	PositionSize float64
	RiskAmount   float64
	EntryTime    time.Time
	ExitTime     time.Time
	PnL          float64
}

// EquityRecord is one equity-curve sample as persisted.
type EquityRecord struct {
	Symbol  string
	Time    time.Time
	Balance float64
}

// Recorder receives the engine's output. Implementations must be safe
// for concurrent use across symbols.
type Recorder interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquityRecord) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error   { return nil }
func (Nop) RecordEquity(EquityRecord) error { return nil }
func (Nop) Close() error                    { return nil }
