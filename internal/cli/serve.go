package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/exstrade/tradeguard/config"
	"github.com/exstrade/tradeguard/gateway"
	"github.com/exstrade/tradeguard/journal"
	kafkaconsumer "github.com/exstrade/tradeguard/kafka"
	"github.com/exstrade/tradeguard/ledger"
	"github.com/exstrade/tradeguard/notify"
	"github.com/exstrade/tradeguard/server"
)

func newServeCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook receiver and query API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(ro)
		},
	}
}

func runServe(ro *rootOptions) error {
	cfg, err := config.Load(ro.ConfigPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(ro.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	rec, sqlj, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	defer rec.Close()

	inits := make([]ledger.Init, 0, len(cfg.Strategies))
	for _, s := range cfg.Strategies {
		inits = append(inits, ledger.Init{
			Symbol:         s.Symbol,
			StrategyName:   s.Name,
			InitialBalance: s.InitialBalance,
		})
	}
	eng := ledger.New(inits, cfg.Risk.FractionPerTrade, rec, logger)
	gw := gateway.New(eng, logger)

	var sender notify.Sender = notify.NopSender{}
	var subs notify.SubscriptionStore
	if cfg.Push.Enabled() {
		if sqlj == nil {
			logger.Warn("push configured but journal is not sqlite; push disabled")
		} else {
			subs = sqlj
			sender = notify.NewWebPushSender(sqlj, cfg.Push.Subscriber, cfg.Push.PublicKey, cfg.Push.PrivateKey, logger)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := server.NewHub(logger)
	go hub.Run(ctx)

	s := server.New(gw, eng, subs, sender, hub, logger, cfg.Server.CORSOrigin)

	if cfg.Kafka.Enabled() {
		cons := kafkaconsumer.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, gw, s.Publish, logger)
		go func() {
			if err := cons.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("kafka consumer", zap.Error(err))
				cancel()
			}
		}()
	}

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: s.R}
	go func() {
		logger.Info("http listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}

	ctxShut, cancelShut := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShut()
	_ = srv.Shutdown(ctxShut)
	logger.Info("shutdown complete")
	return nil
}

// openJournal returns the configured recorder; the second value is the
// SQLite backend when in use, since it doubles as the query side and
// push subscription store.
func openJournal(jc config.JournalConfig) (journal.Recorder, *journal.SQLite, error) {
	switch strings.ToLower(jc.Type) {
	case "sqlite":
		j, err := journal.NewSQLite(jc.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open journal db: %w", err)
		}
		return j, j, nil
	case "csv":
		j, err := journal.NewCSV(jc.TradesFile, jc.EquityFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open csv journal: %w", err)
		}
		return j, nil, nil
	default:
		return journal.Nop{}, nil, nil
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
