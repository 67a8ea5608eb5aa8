package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exstrade/tradeguard/journal"
	"github.com/exstrade/tradeguard/risk"
)

// captureRecorder collects journal writes for assertions.
type captureRecorder struct {
	trades []journal.TradeRecord
	equity []journal.EquityRecord
}

func (r *captureRecorder) RecordTrade(t journal.TradeRecord) error {
	r.trades = append(r.trades, t)
	return nil
}

func (r *captureRecorder) RecordEquity(e journal.EquityRecord) error {
	r.equity = append(r.equity, e)
	return nil
}

func (r *captureRecorder) Close() error { return nil }

func testEngine(rec journal.Recorder) *Engine {
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	n := 0
	clock := func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return New([]Init{
		{Symbol: "BTCUSD", StrategyName: "Strategy_BTC", InitialBalance: 2400},
		{Symbol: "XAUUSD", StrategyName: "Strategy_XAU", InitialBalance: 2900},
	}, 0.01, rec, nil, WithClock(clock))
}

func TestApplyEntry(t *testing.T) {
	t.Parallel()

	e := testEngine(nil)

	trade, desc, err := e.ApplyEntry(EntryCommand{
		Symbol:     "BTCUSD",
		Side:       risk.Buy,
		EntryPrice: 42000,
		StopLoss:   41500,
		TakeProfit: 43500,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusOpen, trade.Status)
	assert.InDelta(t, 0.048, trade.PositionSize, 1e-9)
	assert.InDelta(t, 24.0, trade.RiskAmount, 1e-9)
	assert.InDelta(t, 3.0, trade.RewardRisk, 1e-9)
	assert.NotEmpty(t, trade.ID)
	assert.Zero(t, trade.PnL)
	assert.NotEmpty(t, desc.Body)

	// Equity moves only on close.
	snap, err := e.Snapshot("BTCUSD")
	require.NoError(t, err)
	assert.InDelta(t, 2400.0, snap.CurrentEquity, 1e-9)
	assert.Len(t, snap.Trades, 1)
	assert.Len(t, snap.EquityCurve, 1) // only the seed point
}

func TestApplyEntry_UnknownSymbol(t *testing.T) {
	t.Parallel()

	e := testEngine(nil)
	_, _, err := e.ApplyEntry(EntryCommand{Symbol: "EURUSD", Side: risk.Buy, EntryPrice: 1.1, StopLoss: 1.0})
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestApplyEntry_DegenerateStop(t *testing.T) {
	t.Parallel()

	e := testEngine(nil)
	trade, _, err := e.ApplyEntry(EntryCommand{
		Symbol:     "BTCUSD",
		Side:       risk.Buy,
		EntryPrice: 42000,
		StopLoss:   42000,
	})
	require.NoError(t, err)
	assert.Zero(t, trade.PositionSize)
	assert.Zero(t, trade.RiskAmount)
	assert.Equal(t, StatusOpen, trade.Status)
}

func TestApplyExit_EndToEnd(t *testing.T) {
	t.Parallel()

	rec := &captureRecorder{}
	e := testEngine(rec)

	_, _, err := e.ApplyEntry(EntryCommand{
		Symbol:     "BTCUSD",
		Side:       risk.Buy,
		EntryPrice: 42000,
		StopLoss:   41500,
	})
	require.NoError(t, err)

	trade, desc, err := e.ApplyExit(ExitCommand{Symbol: "BTCUSD", ExitPrice: 42500})
	require.NoError(t, err)

	assert.Equal(t, StatusClosed, trade.Status)
	assert.InDelta(t, 24.0, trade.PnL, 1e-9)
	assert.InDelta(t, 42500.0, trade.ExitPrice, 1e-9)
	assert.Contains(t, desc.Body, "24.00")

	snap, err := e.Snapshot("BTCUSD")
	require.NoError(t, err)
	assert.InDelta(t, 2424.0, snap.CurrentEquity, 1e-9)
	assert.InDelta(t, 2424.0, snap.PeakEquity, 1e-9)
	assert.Zero(t, snap.MaxDrawdown)
	assert.Len(t, snap.EquityCurve, 2)
	assert.InDelta(t, 2424.0, snap.EquityCurve[1].Balance, 1e-9)

	// Journal received both records.
	require.Len(t, rec.trades, 1)
	assert.InDelta(t, 24.0, rec.trades[0].PnL, 1e-9)
	require.Len(t, rec.equity, 1)
	assert.InDelta(t, 2424.0, rec.equity[0].Balance, 1e-9)
}

func TestApplyExit_RoundTripFlat(t *testing.T) {
	t.Parallel()

	e := testEngine(nil)

	_, _, err := e.ApplyEntry(EntryCommand{
		Symbol:     "XAUUSD",
		Side:       risk.Sell,
		EntryPrice: 2050,
		StopLoss:   2060,
	})
	require.NoError(t, err)

	trade, _, err := e.ApplyExit(ExitCommand{Symbol: "XAUUSD", ExitPrice: 2050})
	require.NoError(t, err)
	assert.Zero(t, trade.PnL)

	snap, err := e.Snapshot("XAUUSD")
	require.NoError(t, err)
	assert.InDelta(t, 2900.0, snap.CurrentEquity, 1e-9)
	assert.InDelta(t, 2900.0, snap.PeakEquity, 1e-9)
	assert.Zero(t, snap.MaxDrawdown)
}

func TestApplyExit_FIFO(t *testing.T) {
	t.Parallel()

	e := testEngine(nil)

	t1, _, err := e.ApplyEntry(EntryCommand{
		Symbol: "BTCUSD", TradeID: "t1", Side: risk.Buy, EntryPrice: 42000, StopLoss: 41500,
	})
	require.NoError(t, err)
	t2, _, err := e.ApplyEntry(EntryCommand{
		Symbol: "BTCUSD", TradeID: "t2", Side: risk.Buy, EntryPrice: 42100, StopLoss: 41600,
	})
	require.NoError(t, err)

	closed, _, err := e.ApplyExit(ExitCommand{Symbol: "BTCUSD", ExitPrice: 42500})
	require.NoError(t, err)
	assert.Equal(t, t1.ID, closed.ID)

	closed, _, err = e.ApplyExit(ExitCommand{Symbol: "BTCUSD", ExitPrice: 42500})
	require.NoError(t, err)
	assert.Equal(t, t2.ID, closed.ID)
}

func TestApplyExit_ByTradeID(t *testing.T) {
	t.Parallel()

	e := testEngine(nil)

	_, _, err := e.ApplyEntry(EntryCommand{
		Symbol: "BTCUSD", TradeID: "t1", Side: risk.Buy, EntryPrice: 42000, StopLoss: 41500,
	})
	require.NoError(t, err)
	_, _, err = e.ApplyEntry(EntryCommand{
		Symbol: "BTCUSD", TradeID: "t2", Side: risk.Buy, EntryPrice: 42100, StopLoss: 41600,
	})
	require.NoError(t, err)

	closed, _, err := e.ApplyExit(ExitCommand{Symbol: "BTCUSD", TradeID: "t2", ExitPrice: 42500})
	require.NoError(t, err)
	assert.Equal(t, "t2", closed.ID)

	// t1 is still open; closing t2 again is a no-open-trade outcome.
	_, _, err = e.ApplyExit(ExitCommand{Symbol: "BTCUSD", TradeID: "t2", ExitPrice: 42500})
	assert.ErrorIs(t, err, ErrNoOpenTrade)

	snap, err := e.Snapshot("BTCUSD")
	require.NoError(t, err)
	assert.Len(t, snap.OpenTrades(), 1)
	assert.Equal(t, "t1", snap.OpenTrades()[0].ID)
}

func TestApplyExit_NoOpenTrade(t *testing.T) {
	t.Parallel()

	e := testEngine(nil)

	before, err := e.Snapshot("BTCUSD")
	require.NoError(t, err)

	_, _, err = e.ApplyExit(ExitCommand{Symbol: "BTCUSD", ExitPrice: 42500})
	assert.ErrorIs(t, err, ErrNoOpenTrade)

	after, err := e.Snapshot("BTCUSD")
	require.NoError(t, err)
	assert.Equal(t, before.CurrentEquity, after.CurrentEquity)
	assert.Equal(t, before.MaxDrawdown, after.MaxDrawdown)
	assert.Len(t, after.EquityCurve, len(before.EquityCurve))
}

func TestApplyExit_UnknownSymbol(t *testing.T) {
	t.Parallel()

	e := testEngine(nil)
	_, _, err := e.ApplyExit(ExitCommand{Symbol: "EURUSD", ExitPrice: 1.1})
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestDrawdownAcrossTrades(t *testing.T) {
	t.Parallel()

	e := testEngine(nil)

	// Losing trade: equity 2400 -> 2376, drawdown 1%.
	_, _, err := e.ApplyEntry(EntryCommand{
		Symbol: "BTCUSD", Side: risk.Buy, EntryPrice: 42000, StopLoss: 41500,
	})
	require.NoError(t, err)
	_, _, err = e.ApplyExit(ExitCommand{Symbol: "BTCUSD", ExitPrice: 41500})
	require.NoError(t, err)

	snap, err := e.Snapshot("BTCUSD")
	require.NoError(t, err)
	assert.InDelta(t, 2376.0, snap.CurrentEquity, 1e-9)
	assert.InDelta(t, 2400.0, snap.PeakEquity, 1e-9)
	assert.InDelta(t, 1.0, snap.MaxDrawdown, 1e-9)

	// Winning trade recovers equity; max drawdown must not shrink.
	_, _, err = e.ApplyEntry(EntryCommand{
		Symbol: "BTCUSD", Side: risk.Buy, EntryPrice: 42000, StopLoss: 41500,
	})
	require.NoError(t, err)
	_, _, err = e.ApplyExit(ExitCommand{Symbol: "BTCUSD", ExitPrice: 44000})
	require.NoError(t, err)

	snap, err = e.Snapshot("BTCUSD")
	require.NoError(t, err)
	assert.Greater(t, snap.CurrentEquity, 2400.0)
	assert.InDelta(t, snap.CurrentEquity, snap.PeakEquity, 1e-9)
	assert.InDelta(t, 1.0, snap.MaxDrawdown, 1e-9)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	t.Parallel()

	e := testEngine(nil)
	_, _, err := e.ApplyEntry(EntryCommand{
		Symbol: "BTCUSD", Side: risk.Buy, EntryPrice: 42000, StopLoss: 41500,
	})
	require.NoError(t, err)

	snap, err := e.Snapshot("BTCUSD")
	require.NoError(t, err)
	snap.Trades[0].Status = StatusClosed

	fresh, err := e.Snapshot("BTCUSD")
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, fresh.Trades[0].Status)
}

func TestSymbols(t *testing.T) {
	t.Parallel()

	e := testEngine(nil)
	assert.Equal(t, []string{"BTCUSD", "XAUUSD"}, e.Symbols())
	assert.Len(t, e.Snapshots(), 2)
}

func TestEquityReconciles(t *testing.T) {
	t.Parallel()

	e := testEngine(nil)

	exits := []float64{42500, 41800, 43000}
	for _, exit := range exits {
		_, _, err := e.ApplyEntry(EntryCommand{
			Symbol: "BTCUSD", Side: risk.Buy, EntryPrice: 42000, StopLoss: 41500,
		})
		require.NoError(t, err)
		_, _, err = e.ApplyExit(ExitCommand{Symbol: "BTCUSD", ExitPrice: exit})
		require.NoError(t, err)
	}

	snap, err := e.Snapshot("BTCUSD")
	require.NoError(t, err)

	var sum float64
	for _, tr := range snap.Trades {
		require.Equal(t, StatusClosed, tr.Status)
		sum += tr.PnL
	}
	assert.InDelta(t, snap.InitialBalance+sum, snap.CurrentEquity, 1e-9)
}
