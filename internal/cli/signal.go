package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/exstrade/tradeguard/gateway"
)

// signalOptions covers both entry and exit payload fields.
type signalOptions struct {
	Addr    string
	Symbol  string
	Side    string
	Entry   float64
	Stop    float64
	Target  float64
	Price   float64 // exit price
	TradeID string
	Message string
}

// newSignalCmd is a webhook simulator: it builds the same payload a
// TradingView alert would send and POSTs it to a running server. Useful
// for exercising strategies without a live alert source.
func newSignalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signal",
		Short: "Send a synthetic entry/exit signal to a running server",
	}

	so := &signalOptions{}
	cmd.PersistentFlags().StringVar(&so.Addr, "addr", "http://localhost:8080", "Server base URL")
	cmd.PersistentFlags().StringVar(&so.Symbol, "symbol", "BTCUSD", "Instrument symbol")
	cmd.PersistentFlags().StringVar(&so.TradeID, "trade-id", "", "Explicit trade ID (optional)")
	cmd.PersistentFlags().StringVar(&so.Message, "message", "", "Custom alert message (optional)")

	entry := &cobra.Command{
		Use:   "entry",
		Short: "Send an entry signal",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := gateway.SignalPayload{
				Symbol:       so.Symbol,
				Event:        gateway.EventEntry,
				Side:         so.Side,
				EntryPrice:   &so.Entry,
				StopLoss:     &so.Stop,
				TakeProfit:   &so.Target,
				TradeID:      so.TradeID,
				AlertMessage: so.Message,
				Timestamp:    time.Now().UTC().Format(time.RFC3339),
			}
			return postSignal(so.Addr, p)
		},
	}
	entry.Flags().StringVar(&so.Side, "side", "buy", "buy or sell")
	entry.Flags().Float64Var(&so.Entry, "entry", 0, "Entry price")
	entry.Flags().Float64Var(&so.Stop, "stop", 0, "Stop loss price")
	entry.Flags().Float64Var(&so.Target, "target", 0, "Take profit price")
	entry.MarkFlagRequired("entry")
	entry.MarkFlagRequired("stop")

	exit := &cobra.Command{
		Use:   "exit",
		Short: "Send an exit signal",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := gateway.SignalPayload{
				Symbol:       so.Symbol,
				Event:        gateway.EventExit,
				ExitPrice:    &so.Price,
				TradeID:      so.TradeID,
				AlertMessage: so.Message,
				Timestamp:    time.Now().UTC().Format(time.RFC3339),
			}
			return postSignal(so.Addr, p)
		},
	}
	exit.Flags().Float64Var(&so.Price, "price", 0, "Exit price")
	exit.MarkFlagRequired("price")

	cmd.AddCommand(entry, exit)
	return cmd
}

func postSignal(addr string, p gateway.SignalPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(addr+"/webhook/tradingview", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s %s\n", resp.Status, bytes.TrimSpace(out))
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server rejected signal")
	}
	return nil
}
