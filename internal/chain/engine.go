// Package chain implements the profit-compounding chain engine: chain
// lifecycle, cohort P/L monitoring, level-up transitions, startup
// recovery and the supervising tick loop. Mutations are serialised per
// chain; different chains progress in parallel.
package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/paaavkata/chainengine/internal/broker"
	"github.com/paaavkata/chainengine/internal/chainerr"
	"github.com/paaavkata/chainengine/internal/config"
	"github.com/paaavkata/chainengine/internal/model"
	"github.com/paaavkata/chainengine/internal/notify"
	"github.com/paaavkata/chainengine/internal/pip"
	"github.com/paaavkata/chainengine/internal/risk"
	"github.com/paaavkata/chainengine/internal/store"
)

// maxFaultStreak is the fault-escalation threshold: three consecutive
// level-up attempts failing before commit move the chain to FAULTED.
// It governs every pre-commit abort path except zero-placement
// level-ups, which fault immediately.
const maxFaultStreak = 3

// entry is a chain plus the exclusive lock every mutating operation on
// it acquires, and the consecutive pre-commit failure counter used for
// fault escalation.
type entry struct {
	mu          sync.Mutex
	chain       model.Chain
	faultStreak int
}

// Engine owns chain lifecycle, monitoring and level-up, serialised per
// chain. Operations on different chains run in parallel; the map
// itself is guarded by a read/write lock separate from any individual
// chain's mutex.
type Engine struct {
	mapMu   sync.RWMutex
	chains  map[string]*entry
	enabled bool

	store     store.ChainStore
	broker    broker.Client
	priceFeed broker.PriceFeed
	evaluator *PnLEvaluator
	policy    *risk.Policy
	ledger    *risk.Ledger
	pipCalc   *pip.Calculator
	notifier  notify.Notifier
	cfg       *config.Config
	logger    *logrus.Logger

	brokerTimeout time.Duration
}

func NewEngine(
	cfg *config.Config,
	st store.ChainStore,
	brokerClient broker.Client,
	priceFeed broker.PriceFeed,
	policy *risk.Policy,
	ledger *risk.Ledger,
	pipCalc *pip.Calculator,
	notifier notify.Notifier,
	logger *logrus.Logger,
) *Engine {
	return &Engine{
		chains:        make(map[string]*entry),
		enabled:       cfg.Enabled,
		store:         st,
		broker:        brokerClient,
		priceFeed:     priceFeed,
		evaluator:     NewPnLEvaluator(cfg.SymbolConfig),
		policy:        policy,
		ledger:        ledger,
		pipCalc:       pipCalc,
		notifier:      notifier,
		cfg:           cfg,
		logger:        logger,
		brokerTimeout: 5 * time.Second,
	}
}

func newChainID(symbol string) string {
	return fmt.Sprintf("PROFIT_%s_%s", symbol, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// CreateChain builds a level-0 chain from a PROFIT_TRAIL seed trade,
// persists it, registers it for ticking, and stamps the seed with its
// chain membership. It returns nil, err on any precondition or
// persistence failure without registering the chain in memory.
func (e *Engine) CreateChain(ctx context.Context, seed *model.SeedTrade) (*model.Chain, error) {
	if !e.enabled {
		return nil, chainerr.New(chainerr.ConfigInvalid, "profit booking is disabled")
	}
	if seed.OrderType != model.OrderTypeProfitTrail {
		return nil, chainerr.New(chainerr.ConfigInvalid, "seed trade order_type must be %s, got %s", model.OrderTypeProfitTrail, seed.OrderType)
	}
	if err := e.cfg.Schedule.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c := model.Chain{
		ChainID:           newChainID(seed.Symbol),
		Symbol:            seed.Symbol,
		Direction:         seed.Direction,
		BaseLot:           seed.LotSize,
		CurrentLevel:      0,
		MaxLevel:          e.cfg.Schedule.MaxLevel(),
		TotalProfitBooked: 0,
		Status:            model.StatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
		Schedule:          e.cfg.Schedule,
		Metadata: model.Metadata{
			Strategy:      seed.Strategy,
			OriginalEntry: seed.Entry,
			OriginalSL:    seed.StopLoss,
			OriginalTP:    seed.TakeProfit,
		},
	}
	if seed.OrderID != "" {
		c.ActiveOrderIDs = []string{seed.OrderID}
	}

	if err := e.store.SaveChain(ctx, c); err != nil {
		e.logger.WithError(err).WithField("chain_id", c.ChainID).Error("failed to persist new chain")
		return nil, chainerr.Wrap(chainerr.PersistenceFailure, err, "saving chain %s", c.ChainID)
	}
	if seed.OrderID != "" {
		order := model.ChainOrder{
			OrderID:                 seed.OrderID,
			ChainID:                 c.ChainID,
			Level:                   0,
			ProfitTargetAtPlacement: c.Schedule.ProfitTargets[0],
			SLReductionPercent:      c.Schedule.SLReductions[0],
			State:                   model.OrderOpen,
		}
		if err := e.store.SaveOrder(ctx, order); err != nil {
			e.logger.WithError(err).WithField("chain_id", c.ChainID).Error("failed to persist seed chain order")
			return nil, chainerr.Wrap(chainerr.PersistenceFailure, err, "saving seed order for chain %s", c.ChainID)
		}
	}

	seed.ChainID = c.ChainID
	seed.ProfitLevel = 0

	e.register(&c)

	e.logger.WithFields(logrus.Fields{
		"chain_id": c.ChainID,
		"symbol":   c.Symbol,
		"lot":      c.BaseLot,
	}).Info("created profit chain")
	return &c, nil
}

func (e *Engine) register(c *model.Chain) {
	e.mapMu.Lock()
	defer e.mapMu.Unlock()
	e.chains[c.ChainID] = &entry{chain: c.Clone()}
}

// RegisterRecovered installs a chain reconstructed by the
// RecoveryReconciler, bypassing CreateChain's persistence step since the
// row already exists.
func (e *Engine) RegisterRecovered(c model.Chain) {
	e.mapMu.Lock()
	defer e.mapMu.Unlock()
	e.chains[c.ChainID] = &entry{chain: c}
}

// ActiveChainIDs returns a snapshot of currently registered chain ids.
func (e *Engine) ActiveChainIDs() []string {
	e.mapMu.RLock()
	defer e.mapMu.RUnlock()
	ids := make([]string, 0, len(e.chains))
	for id := range e.chains {
		ids = append(ids, id)
	}
	return ids
}

// Chain returns a snapshot copy of a registered chain.
func (e *Engine) Chain(chainID string) (model.Chain, bool) {
	e.mapMu.RLock()
	ent, ok := e.chains[chainID]
	e.mapMu.RUnlock()
	if !ok {
		return model.Chain{}, false
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.chain.Clone(), true
}

func (e *Engine) lookup(chainID string) (*entry, bool) {
	e.mapMu.RLock()
	defer e.mapMu.RUnlock()
	ent, ok := e.chains[chainID]
	return ent, ok
}

// Tick is the single monitoring step, invoked by an outer scheduler
// once per chain per scheduling cycle: evaluate the cohort's P/L and
// level up when the current target is reached. The target check uses
// >=, and a zero P/L from an empty cohort never triggers (targets are
// strictly positive).
func (e *Engine) Tick(ctx context.Context, chainID string, openTrades []model.OpenTrade) error {
	ent, ok := e.lookup(chainID)
	if !ok {
		return fmt.Errorf("tick: chain %s not registered", chainID)
	}

	ent.mu.Lock()
	defer ent.mu.Unlock()

	c := &ent.chain
	if c.Status != model.StatusActive {
		return nil
	}

	if c.CurrentLevel == c.MaxLevel {
		c.Status = model.StatusCompleted
		c.UpdatedAt = time.Now().UTC()
		if err := e.store.SaveChain(ctx, *c); err != nil {
			e.logger.WithError(err).WithField("chain_id", c.ChainID).Error("failed to persist max-level completion")
			return chainerr.Wrap(chainerr.PersistenceFailure, err, "completing chain %s", c.ChainID)
		}
		e.logger.WithField("chain_id", c.ChainID).Info("chain completed at max level")
		return nil
	}

	pnl, err := e.evaluator.ComputeCohortPnL(*c, openTrades, e.priceFeed)
	if err != nil {
		e.logger.WithError(err).WithField("chain_id", c.ChainID).Warn("pnl evaluation failed, skipping tick")
		return nil
	}

	if pnl < c.Schedule.ProfitTargets[c.CurrentLevel] {
		return nil
	}

	return e.levelUp(ctx, ent, openTrades, pnl)
}

// levelUp closes the current cohort, books its profit, and opens the
// next, larger cohort under a tightened stop. Caller must hold ent.mu.
func (e *Engine) levelUp(ctx context.Context, ent *entry, openTrades []model.OpenTrade, pnl float64) error {
	c := &ent.chain
	from := c.CurrentLevel
	to := from + 1

	e.logger.WithFields(logrus.Fields{
		"chain_id":       c.ChainID,
		"from_level":     from,
		"to_level":       to,
		"expected_close": c.Schedule.Multipliers[from],
		"expected_open":  c.Schedule.Multipliers[to],
	}).Info("level-up triggered")

	// Close the current cohort. Continue on individual failures;
	// partial close is recoverable, not aborted.
	var ordersClosed int
	price := e.priceFeed.GetPrice(c.Symbol)
	for _, t := range openTrades {
		if t.ChainID != c.ChainID || t.Level != from || t.State != model.OrderOpen {
			continue
		}
		closeCtx, cancel := context.WithTimeout(ctx, e.brokerTimeout)
		ok, err := e.broker.CloseOrder(closeCtx, t.OrderID, price)
		cancel()
		if err != nil || !ok {
			e.logger.WithError(err).WithFields(logrus.Fields{
				"chain_id": c.ChainID, "order_id": t.OrderID,
			}).Warn("failed to close cohort order, continuing")
			continue
		}
		ordersClosed++
		closed := model.ChainOrder{
			OrderID: t.OrderID, ChainID: c.ChainID, Level: from,
			ProfitTargetAtPlacement: c.Schedule.ProfitTargets[from],
			SLReductionPercent:      c.Schedule.SLReductions[from],
			State:                   model.OrderClosedTarget,
		}
		if err := e.store.SaveOrder(ctx, closed); err != nil {
			e.logger.WithError(err).WithField("order_id", t.OrderID).Error("failed to persist closed order state")
		}
	}

	// Compute next-cohort parameters.
	if price <= 0 {
		ent.faultStreak++
		e.maybeFault(ent)
		return chainerr.New(chainerr.PriceUnavailable, "price unavailable for %s, aborting level-up at level %d", c.Symbol, from)
	}

	balance, err := e.broker.GetBalance(ctx)
	if err != nil {
		ent.faultStreak++
		e.maybeFault(ent)
		return chainerr.Wrap(chainerr.BrokerTransient, err, "fetching balance for level-up on %s", c.ChainID)
	}

	lot := e.policy.LotForBalance(balance)

	// Consult the risk governor before opening the next cohort. A
	// governor block defers the level-up rather than faulting the
	// chain: declining to risk capital is not a technical failure, so
	// it does not count toward fault escalation.
	tier := e.policy.TierForBalance(balance)
	if !e.ledger.CanTrade(e.policy.RiskTierFor(balance)) {
		e.logger.WithFields(logrus.Fields{
			"chain_id": c.ChainID, "tier": tier,
		}).Warn("risk ledger loss caps exceeded, deferring level-up")
		return nil
	}
	if e.cfg.DualOrderConfig.Enabled {
		if ok, reason := e.policy.ValidateDualOrderRisk(e.ledger, balance, c.Symbol, lot); !ok {
			e.logger.WithFields(logrus.Fields{
				"chain_id": c.ChainID, "reason": reason,
			}).Warn("dual-order risk check failed, deferring level-up")
			return nil
		}
	}

	slAdj := 1 - c.Schedule.SLReductions[to]/100
	slPrice, _, err := e.pipCalc.StopLoss(c.Symbol, price, c.Direction, lot, balance, slAdj)
	if err != nil {
		ent.faultStreak++
		e.maybeFault(ent)
		return chainerr.Wrap(chainerr.ConfigInvalid, err, "computing stop loss for %s", c.ChainID)
	}
	tpPrice := e.pipCalc.TakeProfit(price, slPrice, c.Direction, e.cfg.RRRatio)

	// Open the next cohort.
	wantOrders := c.Schedule.Multipliers[to]
	newIDs := make([]string, 0, wantOrders)
	side := "buy"
	if c.Direction == model.Sell {
		side = "sell"
	}
	comment := fmt.Sprintf("%s level %d", c.ChainID, to)
	for i := 0; i < wantOrders; i++ {
		placeCtx, cancel := context.WithTimeout(ctx, e.brokerTimeout)
		id, err := e.broker.PlaceOrder(placeCtx, c.Symbol, side, lot, price, slPrice, tpPrice, comment)
		cancel()
		if err != nil || id == "" {
			e.logger.WithError(err).WithField("chain_id", c.ChainID).Warn("failed to place next-cohort order, skipping")
			continue
		}
		newIDs = append(newIDs, id)
		order := model.ChainOrder{
			OrderID: id, ChainID: c.ChainID, Level: to,
			ProfitTargetAtPlacement: c.Schedule.ProfitTargets[to],
			SLReductionPercent:      c.Schedule.SLReductions[to],
			State:                   model.OrderOpen,
		}
		if err := e.store.SaveOrder(ctx, order); err != nil {
			e.logger.WithError(err).WithField("order_id", id).Error("failed to persist new-cohort order")
		}
	}

	if len(newIDs) == 0 {
		// The chain remains ACTIVE only if at least one order placed;
		// zero placements fault it on this attempt rather than after
		// the three-strike streak that governs the other pre-commit
		// abort paths above.
		e.fault(ent)
		return chainerr.New(chainerr.BrokerFatal, "no orders placed for level-up on %s, chain faulted", c.ChainID)
	}

	// Commit the transition.
	ent.faultStreak = 0
	c.CurrentLevel = to
	c.ActiveOrderIDs = newIDs
	c.TotalProfitBooked += pnl
	c.UpdatedAt = time.Now().UTC()
	e.ledger.RecordTrade(pnl)

	if err := e.store.SaveChain(ctx, *c); err != nil {
		e.logger.WithError(err).WithField("chain_id", c.ChainID).Error("failed to persist level-up commit")
		return chainerr.Wrap(chainerr.PersistenceFailure, err, "committing level-up for %s", c.ChainID)
	}

	event := model.ProgressionEvent{
		ChainID: c.ChainID, FromLevel: from, ToLevel: to,
		ProfitBooked: pnl, OrdersClosed: ordersClosed, OrdersPlaced: len(newIDs),
		Ts: c.UpdatedAt,
	}
	if err := e.store.AppendEvent(ctx, event); err != nil {
		e.logger.WithError(err).WithField("chain_id", c.ChainID).Error("failed to append progression event")
	}

	nextTarget := 0.0
	nextReduction := 0.0
	if to <= c.MaxLevel {
		nextTarget = c.Schedule.ProfitTargets[to]
		nextReduction = c.Schedule.SLReductions[to]
	}
	msg := formatLevelUpMessage(c.ChainID, from, to, pnl, ordersClosed, len(newIDs), nextTarget, nextReduction)
	if err := e.notifier.Send(msg); err != nil {
		e.logger.WithError(err).WithField("chain_id", c.ChainID).Warn("failed to send level-up notification")
	}

	return nil
}

func (e *Engine) maybeFault(ent *entry) {
	if ent.faultStreak >= maxFaultStreak {
		e.fault(ent)
	}
}

func (e *Engine) fault(ent *entry) {
	ent.chain.Status = model.StatusFaulted
	ent.chain.UpdatedAt = time.Now().UTC()
	e.logger.WithField("chain_id", ent.chain.ChainID).Error("chain faulted after level-up failure")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.store.SaveChain(ctx, ent.chain); err != nil {
		e.logger.WithError(err).WithField("chain_id", ent.chain.ChainID).Error("failed to persist fault transition")
	}
}

// Stop sets a chain to STOPPED. It does NOT close outstanding broker
// orders; whether they ride out their own SL/TP is the surrounding
// system's policy.
func (e *Engine) Stop(ctx context.Context, chainID, reason string) error {
	ent, ok := e.lookup(chainID)
	if !ok {
		return fmt.Errorf("stop: chain %s not registered", chainID)
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()

	if ent.chain.Status.Terminal() {
		return nil
	}
	ent.chain.Status = model.StatusStopped
	ent.chain.UpdatedAt = time.Now().UTC()
	if err := e.store.SaveChain(ctx, ent.chain); err != nil {
		return chainerr.Wrap(chainerr.PersistenceFailure, err, "stopping chain %s", chainID)
	}
	e.logger.WithFields(logrus.Fields{"chain_id": chainID, "reason": reason}).Info("chain stopped")
	return nil
}

// StopAll applies Stop to every currently-active chain.
func (e *Engine) StopAll(ctx context.Context, reason string) {
	for _, id := range e.ActiveChainIDs() {
		if err := e.Stop(ctx, id, reason); err != nil {
			e.logger.WithError(err).WithField("chain_id", id).Error("failed to stop chain during StopAll")
		}
	}
}
