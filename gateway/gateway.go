// Package gateway validates and normalizes inbound signal payloads and
// hands them to the ledger engine. It is transport-agnostic: the HTTP
// server, the Kafka consumer and the CLI simulator all feed it the same
// SignalPayload.
package gateway

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/exstrade/tradeguard/ledger"
	"github.com/exstrade/tradeguard/notify"
	"github.com/exstrade/tradeguard/risk"
)

// Result is what one handled signal produced. Delivery of the
// notification and persistence of the strategy remain the caller's job.
type Result struct {
	Applied      bool // false for the benign no-open-trade outcome
	Event        Event
	Trade        ledger.Trade
	Strategy     ledger.Strategy // snapshot after the apply
	Notification notify.Descriptor
	Message      string
}

type Gateway struct {
	engine *ledger.Engine
	log    *zap.Logger
}

func New(engine *ledger.Engine, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{engine: engine, log: log}
}

// Handle validates a payload, applies it, and returns the outcome.
// Errors are ErrInvalidPayload, ledger.ErrUnknownSymbol, or journal-free
// internal failures; ledger.ErrNoOpenTrade is absorbed into a no-op
// Result because a flat exit signal is not a fault.
func (g *Gateway) Handle(p SignalPayload) (Result, error) {
	if err := p.validate(); err != nil {
		return Result{}, err
	}

	switch p.Event {
	case EventEntry:
		return g.handleEntry(p)
	case EventExit:
		return g.handleExit(p)
	}
	// validate() rejects anything else
	return Result{}, fmt.Errorf("%w: event %q", ErrInvalidPayload, p.Event)
}

func (g *Gateway) handleEntry(p SignalPayload) (Result, error) {
	cmd := ledger.EntryCommand{
		Symbol:       p.Symbol,
		TradeID:      p.TradeID,
		Side:         risk.Side(p.Side),
		EntryPrice:   *p.EntryPrice,
		StopLoss:     *p.StopLoss,
		AlertMessage: p.AlertMessage,
	}
	if p.TakeProfit != nil {
		cmd.TakeProfit = *p.TakeProfit
	}

	trade, desc, err := g.engine.ApplyEntry(cmd)
	if err != nil {
		return Result{}, err
	}

	snap, err := g.engine.Snapshot(p.Symbol)
	if err != nil {
		return Result{}, err
	}

	g.log.Info("entry recorded",
		zap.String("symbol", p.Symbol),
		zap.String("trade_id", trade.ID),
		zap.Float64("position_size", trade.PositionSize))

	return Result{
		Applied:      true,
		Event:        EventEntry,
		Trade:        trade,
		Strategy:     snap,
		Notification: desc,
		Message:      fmt.Sprintf("Entry recorded, size %g", trade.PositionSize),
	}, nil
}

func (g *Gateway) handleExit(p SignalPayload) (Result, error) {
	exitPrice := 0.0
	switch {
	case p.ExitPrice != nil:
		exitPrice = *p.ExitPrice
	case p.EntryPrice != nil:
		// Documented fallback: a source that omits exit_price gets the
		// payload's entry_price, which yields zero PnL. Operators should
		// fix the alert template, hence the warning.
		exitPrice = *p.EntryPrice
		g.log.Warn("exit_price missing, falling back to entry_price",
			zap.String("symbol", p.Symbol),
			zap.Float64("entry_price", exitPrice))
	}

	trade, desc, err := g.engine.ApplyExit(ledger.ExitCommand{
		Symbol:    p.Symbol,
		TradeID:   p.TradeID,
		ExitPrice: exitPrice,
	})
	if errors.Is(err, ledger.ErrNoOpenTrade) {
		g.log.Info("exit ignored, no open trade", zap.String("symbol", p.Symbol))
		snap, serr := g.engine.Snapshot(p.Symbol)
		if serr != nil {
			return Result{}, serr
		}
		return Result{
			Event:    EventExit,
			Strategy: snap,
			Message:  "No open trade found to close",
		}, nil
	}
	if err != nil {
		return Result{}, err
	}

	snap, err := g.engine.Snapshot(p.Symbol)
	if err != nil {
		return Result{}, err
	}

	g.log.Info("exit recorded",
		zap.String("symbol", p.Symbol),
		zap.String("trade_id", trade.ID),
		zap.Float64("pnl", trade.PnL))

	return Result{
		Applied:      true,
		Event:        EventExit,
		Trade:        trade,
		Strategy:     snap,
		Notification: desc,
		Message:      fmt.Sprintf("Exit recorded, pnl %.2f", trade.PnL),
	}, nil
}
