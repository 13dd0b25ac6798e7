package chain

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/paaavkata/chainengine/internal/model"
)

// Reconciler rebuilds in-memory chains on process start from the store
// and live open orders, and clears chain tags on any orphaned trade.
// The schedule is taken from the persisted chain row, never re-read
// from live config, so a config change between restarts cannot rewrite
// an in-flight chain's targets.
type Reconciler struct {
	engine *Engine
	logger *logrus.Logger
}

func NewReconciler(engine *Engine, logger *logrus.Logger) *Reconciler {
	return &Reconciler{engine: engine, logger: logger}
}

// OrphanClearer is called once per orphaned trade so the surrounding
// system can clear chain_id/profit_level on it; the reconciler itself
// only decides which trades are orphans.
type OrphanClearer interface {
	ClearChainTag(ctx context.Context, orderID string) error
}

// Reconcile loads active chain rows, rebuilds each chain's cohort from
// broker truth, registers it with the engine, and clears the chain tag
// on any open trade whose chain no longer exists.
func (r *Reconciler) Reconcile(ctx context.Context, openTrades []model.OpenTrade, clearer OrphanClearer) error {
	rows, err := r.engine.store.LoadActiveChains(ctx)
	if err != nil {
		return err
	}

	registered := make(map[string]bool, len(rows))
	for _, row := range rows {
		c := row // schedule comes from the persisted row, not live config

		var active []string
		for _, t := range openTrades {
			if t.ChainID == c.ChainID && t.Level == c.CurrentLevel && t.State == model.OrderOpen {
				active = append(active, t.OrderID)
			}
		}
		c.ActiveOrderIDs = active

		r.engine.RegisterRecovered(c)
		registered[c.ChainID] = true

		r.logger.WithFields(logrus.Fields{
			"chain_id": c.ChainID,
			"level":    c.CurrentLevel,
			"orders":   len(active),
		}).Info("recovered chain")
	}

	for _, t := range openTrades {
		if t.ChainID == "" {
			continue
		}
		if registered[t.ChainID] {
			continue
		}
		r.logger.WithFields(logrus.Fields{
			"order_id": t.OrderID,
			"chain_id": t.ChainID,
		}).Warn("orphaned order tagged with unregistered chain, clearing tag")
		if clearer != nil {
			if err := clearer.ClearChainTag(ctx, t.OrderID); err != nil {
				r.logger.WithError(err).WithField("order_id", t.OrderID).Error("failed to clear orphan chain tag")
			}
		}
	}
	return nil
}
