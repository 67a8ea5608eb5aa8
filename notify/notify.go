// Package notify builds and delivers signal notifications. The core
// engine only ever produces a Descriptor; delivery is the caller's job.
package notify

import (
	"fmt"
	"strings"
)

const (
	// DefaultTitle is the push title used for every signal notification.
	DefaultTitle = "xTrade Strategy Signal"

	// DefaultTargetURL is where a tapped notification lands.
	DefaultTargetURL = "/"
)

// Descriptor describes one notification-worthy event. It carries no
// transport details.
type Descriptor struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	TargetURL string `json:"url"`
}

// EntryDescriptor builds the notification for a freshly opened trade.
// When the signal carried its own alert message that wins; otherwise a
// default body is assembled from the trade parameters.
func EntryDescriptor(symbol, side string, entry, stop, takeProfit float64, alertMessage string) Descriptor {
	body := alertMessage
	if body == "" {
		var b strings.Builder
		fmt.Fprintf(&b, "%s\n", strings.ToUpper(side))
		fmt.Fprintf(&b, "PAIR %s\n", symbol)
		fmt.Fprintf(&b, "ENTRY: %g\n", entry)
		fmt.Fprintf(&b, "STOP LOSS: %g\n", stop)
		fmt.Fprintf(&b, "TAKE PROFIT: %g\n", takeProfit)
		b.WriteString("\nKeep risk per trade at 1% and protect your money management")
		body = b.String()
	}
	return Descriptor{Title: DefaultTitle, Body: body, TargetURL: DefaultTargetURL}
}

// ExitDescriptor builds the notification for a closed trade.
func ExitDescriptor(symbol string, exitPrice, pnl float64) Descriptor {
	return Descriptor{
		Title:     DefaultTitle,
		Body:      fmt.Sprintf("CLOSE %s @ %g\nTrade Closed. PnL: $%.2f", symbol, exitPrice, pnl),
		TargetURL: DefaultTargetURL,
	}
}
