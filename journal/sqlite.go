package journal

import (
	"database/sql"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/exstrade/tradeguard/notify"
)

// SQLite journals trades, equity samples and push subscriptions in one
// database file. A single mutex serializes writers; go-sqlite3 handles
// one writer at a time anyway.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO trades
		(trade_id, symbol, side, entry_price, exit_price, position_size, risk_amount, entry_time, exit_time, pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Symbol, t.Side, t.EntryPrice, t.ExitPrice,
		t.PositionSize, t.RiskAmount, t.EntryTime, t.ExitTime, t.PnL,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquityRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`
		INSERT INTO equity (symbol, time, balance) VALUES (?, ?, ?)`,
		e.Symbol, e.Time, e.Balance,
	)
	return err
}

// UpsertSubscription implements notify.SubscriptionStore. Upsert keyed
// on endpoint so re-subscribing the same browser never duplicates.
func (j *SQLite) UpsertSubscription(sub notify.Subscription) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`
		INSERT INTO push_subscriptions (endpoint, p256dh, auth) VALUES (?, ?, ?)
		ON CONFLICT(endpoint) DO UPDATE SET p256dh=excluded.p256dh, auth=excluded.auth`,
		sub.Endpoint, sub.P256dh, sub.Auth,
	)
	return err
}

func (j *SQLite) RemoveSubscription(endpoint string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	return err
}

func (j *SQLite) ListSubscriptions() ([]notify.Subscription, error) {
	rows, err := j.db.Query(`SELECT endpoint, p256dh, auth FROM push_subscriptions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []notify.Subscription
	for rows.Next() {
		var s notify.Subscription
		if err := rows.Scan(&s.Endpoint, &s.P256dh, &s.Auth); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
