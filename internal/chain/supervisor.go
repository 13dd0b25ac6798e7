package chain

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/paaavkata/chainengine/internal/model"
)

// OpenTradesSource supplies the current set of live broker positions a
// Tick needs, fetched once per cycle rather than per chain.
type OpenTradesSource interface {
	OpenTrades(ctx context.Context) ([]model.OpenTrade, error)
}

// Supervisor is a single ticker-driven loop that, each period,
// snapshots the engine's active chain ids and launches one goroutine
// per chain to call Tick, bounded by a worker-count semaphore. It
// never holds a chain's lock itself.
type Supervisor struct {
	engine     *Engine
	tradesSrc  OpenTradesSource
	interval   time.Duration
	maxWorkers int
	logger     *logrus.Logger
}

func NewSupervisor(engine *Engine, tradesSrc OpenTradesSource, interval time.Duration, maxWorkers int, logger *logrus.Logger) *Supervisor {
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	return &Supervisor{engine: engine, tradesSrc: tradesSrc, interval: interval, maxWorkers: maxWorkers, logger: logger}
}

// Run blocks, ticking until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Supervisor) runCycle(ctx context.Context) {
	openTrades, err := s.tradesSrc.OpenTrades(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch open trades for tick cycle")
		return
	}

	ids := s.engine.ActiveChainIDs()
	sem := make(chan struct{}, s.maxWorkers)
	var wg sync.WaitGroup

	for _, id := range ids {
		id := id
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := s.engine.Tick(ctx, id, openTrades); err != nil {
				s.logger.WithError(err).WithField("chain_id", id).Warn("tick failed")
			}
		}()
	}
	wg.Wait()
}
