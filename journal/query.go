package journal

import (
	"database/sql"
	"fmt"
	"time"
)

const tradeColumns = `trade_id, symbol, side, entry_price, exit_price, position_size, risk_amount, entry_time, exit_time, pnl`

func scanTrade(row interface{ Scan(...any) error }) (TradeRecord, error) {
	var rec TradeRecord
	err := row.Scan(
		&rec.TradeID,
		&rec.Symbol,
		&rec.Side,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.PositionSize,
		&rec.RiskAmount,
		&rec.EntryTime,
		&rec.ExitTime,
		&rec.PnL,
	)
	return rec, err
}

// GetTrade returns a single closed trade by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE trade_id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
	}
	if err != nil {
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesClosedBetween returns trades whose exit_time is within
// [start, end), oldest first.
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE exit_time >= ? AND exit_time < ?
		ORDER BY exit_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListEquityRange returns a symbol's equity samples within [from, to),
// oldest first. Zero bounds mean unbounded, so charting collaborators
// can ask for the full curve or a suffix.
func (j *SQLite) ListEquityRange(symbol string, from, to time.Time) ([]EquityRecord, error) {
	q := `SELECT symbol, time, balance FROM equity WHERE symbol = ?`
	args := []any{symbol}
	if !from.IsZero() {
		q += ` AND time >= ?`
		args = append(args, from)
	}
	if !to.IsZero() {
		q += ` AND time < ?`
		args = append(args, to)
	}
	q += ` ORDER BY time ASC`

	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityRecord
	for rows.Next() {
		var rec EquityRecord
		if err := rows.Scan(&rec.Symbol, &rec.Time, &rec.Balance); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
