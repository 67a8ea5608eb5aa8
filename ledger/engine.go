// Package ledger owns per-symbol strategy state and applies entry/exit
// commands to it. All math is delegated to the risk package; all I/O
// stays with the caller. The engine only describes notifications, it
// never delivers them.
package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/exstrade/tradeguard/internal/id"
	"github.com/exstrade/tradeguard/journal"
	"github.com/exstrade/tradeguard/notify"
	"github.com/exstrade/tradeguard/risk"
)

// Init seeds one strategy.
type Init struct {
	Symbol         string
	StrategyName   string
	InitialBalance float64
}

// EntryCommand opens a new trade.
type EntryCommand struct {
	Symbol       string
	TradeID      string // optional; generated when empty
	Side         risk.Side
	EntryPrice   float64
	StopLoss     float64
	TakeProfit   float64
	AlertMessage string
}

// ExitCommand closes an open trade. With no TradeID the oldest OPEN
// trade for the symbol is closed (FIFO).
type ExitCommand struct {
	Symbol    string
	TradeID   string // optional
	ExitPrice float64
}

type strategyState struct {
	mu sync.Mutex
	s  Strategy
}

// Engine applies signal commands to strategy ledgers. Mutations on a
// given symbol are serialized by a per-symbol lock; different symbols
// proceed in parallel. The symbol set is fixed at construction.
type Engine struct {
	strategies   map[string]*strategyState
	riskFraction float64
	rec          journal.Recorder
	log          *zap.Logger
	now          func() time.Time
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithClock injects a clock, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an engine tracking the given strategies. rec may be nil to
// skip journaling.
func New(inits []Init, riskFraction float64, rec journal.Recorder, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = journal.Nop{}
	}
	e := &Engine{
		strategies:   make(map[string]*strategyState, len(inits)),
		riskFraction: riskFraction,
		rec:          rec,
		log:          log,
		now:          time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	for _, in := range inits {
		e.strategies[in.Symbol] = &strategyState{
			s: Strategy{
				Symbol:         in.Symbol,
				StrategyName:   in.StrategyName,
				InitialBalance: in.InitialBalance,
				CurrentEquity:  in.InitialBalance,
				PeakEquity:     in.InitialBalance,
				EquityCurve: []EquityPoint{
					{Time: e.now().UTC(), Balance: in.InitialBalance},
				},
			},
		}
	}
	return e
}

// RiskFraction returns the configured per-trade risk budget.
func (e *Engine) RiskFraction() float64 { return e.riskFraction }

// ApplyEntry sizes and opens a new trade. Equity does not change on
// entry; it moves only when the trade closes. A stop equal to the entry
// price yields a zero-size, zero-risk trade rather than an error.
func (e *Engine) ApplyEntry(cmd EntryCommand) (Trade, notify.Descriptor, error) {
	st, ok := e.strategies[cmd.Symbol]
	if !ok {
		return Trade{}, notify.Descriptor{}, fmt.Errorf("apply entry %q: %w", cmd.Symbol, ErrUnknownSymbol)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	sizing := risk.PositionSize(st.s.CurrentEquity, cmd.EntryPrice, cmd.StopLoss, e.riskFraction)
	if sizing.Size == 0 {
		e.log.Warn("degenerate stop, zero-size entry",
			zap.String("symbol", cmd.Symbol),
			zap.Float64("entry_price", cmd.EntryPrice))
	}

	tradeID := cmd.TradeID
	if tradeID == "" {
		tradeID = id.New()
	}

	t := Trade{
		ID:           tradeID,
		Symbol:       cmd.Symbol,
		StrategyName: st.s.StrategyName,
		Side:         cmd.Side,
		EntryPrice:   cmd.EntryPrice,
		StopLoss:     cmd.StopLoss,
		TakeProfit:   cmd.TakeProfit,
		PositionSize: sizing.Size,
		RiskAmount:   sizing.RiskAmount,
		RewardRisk:   risk.RR(cmd.EntryPrice, cmd.StopLoss, cmd.TakeProfit),
		EntryTime:    e.now().UTC(),
		Status:       StatusOpen,
		AlertMessage: cmd.AlertMessage,
	}
	st.s.Trades = append(st.s.Trades, t)

	d := notify.EntryDescriptor(cmd.Symbol, string(cmd.Side), cmd.EntryPrice, cmd.StopLoss, cmd.TakeProfit, cmd.AlertMessage)
	return t, d, nil
}

// ApplyExit closes an open trade and settles its PnL into equity, peak
// and max drawdown, then appends an equity-curve point. Journal write
// failures are logged, not returned: the in-memory ledger is the source
// of truth and an apply never half-commits.
func (e *Engine) ApplyExit(cmd ExitCommand) (Trade, notify.Descriptor, error) {
	st, ok := e.strategies[cmd.Symbol]
	if !ok {
		return Trade{}, notify.Descriptor{}, fmt.Errorf("apply exit %q: %w", cmd.Symbol, ErrUnknownSymbol)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	t := e.selectOpenLocked(st, cmd.TradeID)
	if t == nil {
		return Trade{}, notify.Descriptor{}, fmt.Errorf("apply exit %q: %w", cmd.Symbol, ErrNoOpenTrade)
	}

	pnl := risk.PnL(t.Side, t.EntryPrice, cmd.ExitPrice, t.PositionSize)
	now := e.now().UTC()

	t.Status = StatusClosed
	t.ExitPrice = cmd.ExitPrice
	t.ExitTime = now
	t.PnL = pnl

	st.s.CurrentEquity += pnl
	dd := risk.UpdateDrawdown(st.s.CurrentEquity, st.s.PeakEquity, st.s.MaxDrawdown)
	st.s.PeakEquity = dd.Peak
	st.s.MaxDrawdown = dd.MaxDD

	point := EquityPoint{Time: now, Balance: st.s.CurrentEquity}
	st.s.EquityCurve = append(st.s.EquityCurve, point)

	if err := e.rec.RecordTrade(journal.TradeRecord{
		TradeID:      t.ID,
		Symbol:       t.Symbol,
		Side:         string(t.Side),
		EntryPrice:   t.EntryPrice,
		ExitPrice:    t.ExitPrice,
		PositionSize: t.PositionSize,
		RiskAmount:   t.RiskAmount,
		EntryTime:    t.EntryTime,
		ExitTime:     t.ExitTime,
		PnL:          t.PnL,
	}); err != nil {
		e.log.Warn("journal trade", zap.String("trade_id", t.ID), zap.Error(err))
	}
	if err := e.rec.RecordEquity(journal.EquityRecord{
		Symbol:  cmd.Symbol,
		Time:    point.Time,
		Balance: point.Balance,
	}); err != nil {
		e.log.Warn("journal equity", zap.String("symbol", cmd.Symbol), zap.Error(err))
	}

	d := notify.ExitDescriptor(cmd.Symbol, cmd.ExitPrice, pnl)
	return *t, d, nil
}

// selectOpenLocked picks the trade an exit command targets: the exact
// open trade when an ID is supplied, the oldest open trade otherwise.
// Trades is append-only in entry order, which is what makes the FIFO
// pick correct.
func (e *Engine) selectOpenLocked(st *strategyState, tradeID string) *Trade {
	for i := range st.s.Trades {
		t := &st.s.Trades[i]
		if t.Status != StatusOpen {
			continue
		}
		if tradeID == "" || t.ID == tradeID {
			return t
		}
	}
	return nil
}

// Snapshot returns a deep copy of one strategy's state.
func (e *Engine) Snapshot(symbol string) (Strategy, error) {
	st, ok := e.strategies[symbol]
	if !ok {
		return Strategy{}, fmt.Errorf("snapshot %q: %w", symbol, ErrUnknownSymbol)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return cloneStrategy(st.s), nil
}

// Snapshots returns deep copies of every strategy, sorted by symbol.
func (e *Engine) Snapshots() []Strategy {
	out := make([]Strategy, 0, len(e.strategies))
	for _, sym := range e.Symbols() {
		if s, err := e.Snapshot(sym); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// Symbols returns the tracked symbols in sorted order.
func (e *Engine) Symbols() []string {
	syms := make([]string, 0, len(e.strategies))
	for sym := range e.strategies {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

func cloneStrategy(s Strategy) Strategy {
	out := s
	out.Trades = append([]Trade(nil), s.Trades...)
	out.EquityCurve = append([]EquityPoint(nil), s.EquityCurve...)
	return out
}
