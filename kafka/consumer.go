// Package kafka is an optional second signal transport: alert
// publishers that cannot POST a webhook can produce the same JSON
// payloads to a topic instead.
package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/exstrade/tradeguard/gateway"
	"github.com/exstrade/tradeguard/ledger"
)

type Consumer struct {
	reader  *kafka.Reader
	gw      *gateway.Gateway
	publish func(gateway.Result) // optional fanout, shared with the HTTP server
	log     *zap.Logger
}

func NewConsumer(brokers, topic, groupID string, gw *gateway.Gateway, publish func(gateway.Result), log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  []string{brokers},
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
			MaxWait:  500 * time.Millisecond,
		}),
		gw:      gw,
		publish: publish,
		log:     log,
	}
}

// Run consumes until ctx is canceled. A bad message is logged and
// skipped; each signal is independent so one poison payload never stops
// the stream.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		p, err := gateway.ParsePayload(m.Value)
		if err != nil {
			c.log.Warn("bad message", zap.Error(err))
			continue
		}

		res, err := c.gw.Handle(p)
		switch {
		case errors.Is(err, gateway.ErrInvalidPayload), errors.Is(err, ledger.ErrUnknownSymbol):
			c.log.Warn("signal rejected", zap.String("symbol", p.Symbol), zap.Error(err))
		case err != nil:
			c.log.Error("apply signal", zap.String("symbol", p.Symbol), zap.Error(err))
		default:
			if c.publish != nil {
				c.publish(res)
			}
			c.log.Debug("signal applied",
				zap.String("symbol", p.Symbol),
				zap.String("event", string(res.Event)),
				zap.Bool("applied", res.Applied))
		}
	}
}
