package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/exstrade/tradeguard/risk"
)

// ErrInvalidPayload marks a signal rejected before it reaches engine
// state. The wrapped message says which field was bad.
var ErrInvalidPayload = errors.New("invalid payload")

// Event discriminates the signal union.
type Event string

const (
	EventEntry Event = "entry"
	EventExit  Event = "exit"
)

// SignalPayload is the inbound wire format, as produced by a TradingView
// alert webhook. Optional numerics are pointers so "absent" and "zero"
// stay distinguishable.
type SignalPayload struct {
	Symbol       string   `json:"symbol"`
	StrategyName string   `json:"strategy_name,omitempty"`
	Event        Event    `json:"event"`
	Side         string   `json:"side,omitempty"`
	EntryPrice   *float64 `json:"entry_price,omitempty"`
	StopLoss     *float64 `json:"stop_loss,omitempty"`
	TakeProfit   *float64 `json:"take_profit,omitempty"`
	ExitPrice    *float64 `json:"exit_price,omitempty"`
	TradeID      string   `json:"trade_id,omitempty"`
	AlertMessage string   `json:"alert_message,omitempty"`
	Timestamp    string   `json:"timestamp,omitempty"`
}

// ParsePayload decodes a raw signal body.
func ParsePayload(data []byte) (SignalPayload, error) {
	var p SignalPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return SignalPayload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return p, nil
}

// validate checks shape only; symbol membership is the engine's call.
func (p SignalPayload) validate() error {
	if p.Symbol == "" {
		return fmt.Errorf("%w: missing symbol", ErrInvalidPayload)
	}

	switch p.Event {
	case EventEntry:
		if !risk.Side(p.Side).Valid() {
			return fmt.Errorf("%w: entry requires side buy|sell, got %q", ErrInvalidPayload, p.Side)
		}
		if err := requireFinite("entry_price", p.EntryPrice); err != nil {
			return err
		}
		if err := requireFinite("stop_loss", p.StopLoss); err != nil {
			return err
		}
		if p.TakeProfit != nil {
			if err := requireFinite("take_profit", p.TakeProfit); err != nil {
				return err
			}
		}
	case EventExit:
		// exit_price may be absent (entry_price fallback), but whichever
		// is present must be finite.
		if p.ExitPrice == nil && p.EntryPrice == nil {
			return fmt.Errorf("%w: exit requires exit_price (or entry_price fallback)", ErrInvalidPayload)
		}
		if p.ExitPrice != nil {
			if err := requireFinite("exit_price", p.ExitPrice); err != nil {
				return err
			}
		}
		if p.EntryPrice != nil {
			if err := requireFinite("entry_price", p.EntryPrice); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: event must be entry or exit, got %q", ErrInvalidPayload, p.Event)
	}
	return nil
}

func requireFinite(name string, v *float64) error {
	if v == nil {
		return fmt.Errorf("%w: missing %s", ErrInvalidPayload, name)
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return fmt.Errorf("%w: %s is not finite", ErrInvalidPayload, name)
	}
	return nil
}
