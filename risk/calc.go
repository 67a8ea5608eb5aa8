package risk

import "math"

// Side of a trade. The wire format uses lowercase strings, so the
// constants do too.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

func (s Side) Valid() bool { return s == Buy || s == Sell }

// Sizing is the result of PositionSize.
type Sizing struct {
	Size       float64
	RiskAmount float64
}

// PositionSize sizes a position so that a stop-out loses riskFraction of
// equity. A zero stop distance is a degenerate stop: the caller gets a
// zero-size, zero-risk position instead of a division by zero.
func PositionSize(equity, entry, stop, riskFraction float64) Sizing {
	dist := math.Abs(entry - stop)
	if dist == 0 {
		return Sizing{}
	}
	riskAmt := equity * riskFraction
	return Sizing{
		Size:       riskAmt / dist,
		RiskAmount: riskAmt,
	}
}

// PnL is the realized profit for a closed position.
func PnL(side Side, entry, exit, size float64) float64 {
	if side == Sell {
		return (entry - exit) * size
	}
	return (exit - entry) * size
}

// RR returns the reward/risk ratio of an entry, or 0 when the stop
// distance is zero.
func RR(entry, stop, takeProfit float64) float64 {
	r := math.Abs(entry - stop)
	if r == 0 {
		return 0
	}
	return math.Abs(takeProfit-entry) / r
}

// Drawdown is the result of UpdateDrawdown.
type Drawdown struct {
	Peak  float64
	MaxDD float64 // percentage
}

// UpdateDrawdown folds a new equity reading into the running peak and
// max-drawdown stats. MaxDD never decreases.
func UpdateDrawdown(equity, peak, priorMaxDD float64) Drawdown {
	newPeak := math.Max(peak, equity)

	var dd float64
	if newPeak > 0 {
		dd = (newPeak - equity) / newPeak * 100
	}

	return Drawdown{
		Peak:  newPeak,
		MaxDD: math.Max(priorMaxDD, dd),
	}
}
