package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/paaavkata/chainengine/internal/broker"
	"github.com/paaavkata/chainengine/internal/chain"
	"github.com/paaavkata/chainengine/internal/config"
	"github.com/paaavkata/chainengine/internal/logging"
	"github.com/paaavkata/chainengine/internal/model"
	"github.com/paaavkata/chainengine/internal/notify"
	"github.com/paaavkata/chainengine/internal/pip"
	"github.com/paaavkata/chainengine/internal/risk"
	"github.com/paaavkata/chainengine/internal/store"
)

// noOpenTrades is the OpenTradesSource wired when no live broker
// position feed is configured; a real deployment wires a source backed
// by its position-sync ingress in its place.
type noOpenTrades struct{}

func (noOpenTrades) OpenTrades(_ context.Context) ([]model.OpenTrade, error) {
	return nil, nil
}

func main() {
	logger := logging.New("chain-engine")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}
	logger.WithFields(logrus.Fields{
		"enabled":         cfg.Enabled,
		"max_level":       cfg.Schedule.MaxLevel(),
		"simulate_orders": cfg.SimulateOrders,
		"tick_interval":   cfg.TickInterval,
	}).Info("configuration loaded")

	chainStore := newChainStore(cfg, logger)
	brokerClient := newBroker(cfg, logger)

	var rawFeed broker.PriceFeed = broker.NewBrokerPriceFeed(brokerClient, time.Second, logger)
	priceFeed := broker.NewCachedPriceFeed(rawFeed, 250*time.Millisecond)

	policy := risk.NewPolicy(cfg)
	ledger := risk.NewLedger(risk.NewFileStore(cfg.LedgerPath, logger))
	pipCalc := pip.NewCalculator(cfg.SymbolConfig)
	notifier := newNotifier(cfg, logger)

	engine := chain.NewEngine(cfg, chainStore, brokerClient, priceFeed, policy, ledger, pipCalc, notifier, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reconciler := chain.NewReconciler(engine, logger)
	if err := reconciler.Reconcile(ctx, nil, nil); err != nil {
		logger.WithError(err).Fatal("failed to reconcile chains on startup")
	}
	logger.WithField("active_chains", len(engine.ActiveChainIDs())).Info("recovery complete")

	interval := time.Duration(cfg.TickInterval) * time.Second
	supervisor := chain.NewSupervisor(engine, noOpenTrades{}, interval, 8, logger)

	go func() {
		if err := supervisor.Run(ctx); err != nil {
			logger.WithError(err).Error("chain supervisor stopped with error")
		}
	}()

	logger.Info("chain engine service started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down chain engine service...")
	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("chain engine service stopped")
}

func newChainStore(cfg *config.Config, logger *logrus.Logger) store.ChainStore {
	if cfg.SimulateOrders {
		return store.NewMemoryStore()
	}
	db, err := store.OpenDB(cfg.DatabaseURI, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	return store.NewPostgresStore(db, logger)
}

func newBroker(cfg *config.Config, logger *logrus.Logger) broker.Client {
	if cfg.SimulateOrders {
		return broker.NewSimBroker(10000)
	}
	return broker.NewRESTBroker(broker.RESTConfig{
		BaseURL:    cfg.BrokerBaseURL,
		APIKey:     os.Getenv("BROKER_API_KEY"),
		APISecret:  os.Getenv("BROKER_API_SECRET"),
		Passphrase: os.Getenv("BROKER_API_PASSPHRASE"),
	}, logger)
}

func newNotifier(cfg *config.Config, logger *logrus.Logger) notify.Notifier {
	if cfg.WebhookURL == "" {
		return notify.NewLogNotifier(logger)
	}
	return notify.NewWebhookNotifier(cfg.WebhookURL, logger)
}
