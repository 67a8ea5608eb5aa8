package ledger

import (
	"time"

	"github.com/exstrade/tradeguard/risk"
)

// Status of a trade. The only transition is OPEN -> CLOSED.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Trade is one position in a strategy's ledger. Created OPEN on an entry
// signal, closed exactly once on an exit signal, never deleted.
type Trade struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	StrategyName string    `json:"strategy_name"`
	Side         risk.Side `json:"side"`
	EntryPrice   float64   `json:"entry_price"`
	StopLoss     float64   `json:"stop_loss"`
	TakeProfit   float64   `json:"take_profit"`
	PositionSize float64   `json:"position_size"`
	RiskAmount   float64   `json:"risk_amount"`
	RewardRisk   float64   `json:"reward_risk"`
	EntryTime    time.Time `json:"entry_time"`
	Status       Status    `json:"status"`

	// Populated on close. PnL stays 0 while the trade is OPEN.
	ExitPrice float64   `json:"exit_price,omitempty"`
	ExitTime  time.Time `json:"exit_time,omitzero"`
	PnL       float64   `json:"pnl"`

	// Free-text annotation from the alerting tool, never interpreted.
	AlertMessage string `json:"alert_message,omitempty"`
}

// EquityPoint is one sample of the append-only equity curve.
type EquityPoint struct {
	Time    time.Time `json:"timestamp"`
	Balance float64   `json:"balance"`
}

// Strategy is the full accounting state for one symbol.
type Strategy struct {
	Symbol         string        `json:"symbol"`
	StrategyName   string        `json:"strategy_name"`
	InitialBalance float64       `json:"initial_balance"`
	CurrentEquity  float64       `json:"current_equity"`
	PeakEquity     float64       `json:"peak_equity"`
	MaxDrawdown    float64       `json:"max_drawdown"` // percentage
	Trades         []Trade       `json:"trades"`
	EquityCurve    []EquityPoint `json:"equity_curve"`
}

// OpenTrades returns the OPEN trades in entry order.
func (s *Strategy) OpenTrades() []Trade {
	var out []Trade
	for _, t := range s.Trades {
		if t.Status == StatusOpen {
			out = append(out, t)
		}
	}
	return out
}
