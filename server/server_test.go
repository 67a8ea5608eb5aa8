package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exstrade/tradeguard/gateway"
	"github.com/exstrade/tradeguard/ledger"
)

func newTestServer() *Server {
	eng := ledger.New([]ledger.Init{
		{Symbol: "BTCUSD", StrategyName: "Strategy_BTC", InitialBalance: 2400},
		{Symbol: "XAUUSD", StrategyName: "Strategy_XAU", InitialBalance: 2900},
	}, 0.01, nil, nil)
	gw := gateway.New(eng, nil)
	return New(gw, eng, nil, nil, nil, nil, "*")
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.R.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestHealth(t *testing.T) {
	t.Parallel()

	w := do(t, newTestServer(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhook_EntryExitFlow(t *testing.T) {
	t.Parallel()

	s := newTestServer()

	w := do(t, s, http.MethodPost, "/webhook/tradingview",
		`{"symbol":"BTCUSD","event":"entry","side":"buy","entry_price":42000,"stop_loss":41500,"take_profit":43500}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Entry Recorded & Push Sent", body["message"])
	assert.InDelta(t, 0.048, body["size"].(float64), 1e-9)

	w = do(t, s, http.MethodPost, "/webhook/tradingview",
		`{"symbol":"BTCUSD","event":"exit","exit_price":42500}`)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "Exit Recorded & Push Sent", body["message"])
	assert.InDelta(t, 24.0, body["pnl"].(float64), 1e-9)

	// Strategy state reflects the round trip.
	w = do(t, s, http.MethodGet, "/api/strategies/BTCUSD", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.InDelta(t, 2424.0, body["current_equity"].(float64), 1e-9)
}

func TestWebhook_NoOpenTrade(t *testing.T) {
	t.Parallel()

	w := do(t, newTestServer(), http.MethodPost, "/webhook/tradingview",
		`{"symbol":"XAUUSD","event":"exit","exit_price":2060}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "No open trade found to close", decode(t, w)["message"])
}

func TestWebhook_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		payload  string
		wantCode int
	}{
		{"bad_json", `{`, http.StatusBadRequest},
		{"bad_event", `{"symbol":"BTCUSD","event":"close"}`, http.StatusBadRequest},
		{"entry_missing_stop", `{"symbol":"BTCUSD","event":"entry","side":"buy","entry_price":42000}`, http.StatusBadRequest},
		{"unknown_symbol", `{"symbol":"EURUSD","event":"entry","side":"buy","entry_price":1.1,"stop_loss":1.0}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := do(t, newTestServer(), http.MethodPost, "/webhook/tradingview", tt.payload)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestGetStrategies(t *testing.T) {
	t.Parallel()

	w := do(t, newTestServer(), http.MethodGet, "/api/strategies", "")
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "BTCUSD", list[0]["symbol"])
	assert.Equal(t, "XAUUSD", list[1]["symbol"])
}

func TestGetTrades(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	do(t, s, http.MethodPost, "/webhook/tradingview",
		`{"symbol":"BTCUSD","event":"entry","side":"buy","entry_price":42000,"stop_loss":41500}`)

	w := do(t, s, http.MethodGet, "/api/strategies/BTCUSD/trades", "")
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode(t, w)["rows"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "OPEN", rows[0].(map[string]any)["status"])

	w = do(t, s, http.MethodGet, "/api/strategies/EURUSD/trades", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetEquityCurve(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	do(t, s, http.MethodPost, "/webhook/tradingview",
		`{"symbol":"BTCUSD","event":"entry","side":"buy","entry_price":42000,"stop_loss":41500}`)
	do(t, s, http.MethodPost, "/webhook/tradingview",
		`{"symbol":"BTCUSD","event":"exit","exit_price":42500}`)

	w := do(t, s, http.MethodGet, "/api/strategies/BTCUSD/equity", "")
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode(t, w)["rows"].([]any)
	require.Len(t, rows, 2) // seed point + the close

	// A bound in the far future clips everything.
	w = do(t, s, http.MethodGet, "/api/strategies/BTCUSD/equity?from=2100-01-01T00:00:00Z", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["rows"])

	w = do(t, s, http.MethodGet, "/api/strategies/BTCUSD/equity?from=not-a-time", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
