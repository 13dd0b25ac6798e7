package risk

import (
	"sync"
	"time"

	"github.com/paaavkata/chainengine/internal/config"
)

// State is the persisted shape of the ledger's counters.
type State struct {
	Date          string  `json:"date"`
	DailyLoss     float64 `json:"daily_loss"`
	DailyProfit   float64 `json:"daily_profit"`
	LifetimeLoss  float64 `json:"lifetime_loss"`
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
}

// Ledger is the process-global, mutex-serialized counters component.
// It is an injected service rather than ambient package state: callers
// construct one and pass it around.
type Ledger struct {
	mu    sync.Mutex
	state State
	store *FileStore
}

// NewLedger loads initial state from store (resetting to zero for today
// on a missing or corrupt file) and returns a ready Ledger. A stale
// date in the loaded state rolls over immediately, so daily counters
// from before a restart never gate trading decisions.
func NewLedger(store *FileStore) *Ledger {
	l := &Ledger{state: store.Load(), store: store}
	l.mu.Lock()
	l.rollDayLocked(today())
	l.mu.Unlock()
	return l
}

// RecordTrade updates totals for a closed trade's realized P/L, then
// persists synchronously.
func (l *Ledger) RecordTrade(pnl float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rollDayLocked(today())

	l.state.TotalTrades++
	if pnl > 0 {
		l.state.DailyProfit += pnl
		l.state.WinningTrades++
	} else {
		l.state.DailyLoss += -pnl
		l.state.LifetimeLoss += -pnl
	}
	l.store.Save(l.state)
}

// RollDay zeroes daily counters if the stored date differs from today.
func (l *Ledger) RollDay(todayStr string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDayLocked(todayStr)
}

func (l *Ledger) rollDayLocked(todayStr string) {
	if l.state.Date != todayStr {
		l.state.Date = todayStr
		l.state.DailyLoss = 0
		l.state.DailyProfit = 0
		l.store.Save(l.state)
	}
}

// CanTrade reports whether daily and lifetime losses are both still
// below tier's caps; a loss equal to a cap blocks. A zero-limit tier
// permits nothing, so a balance
// tier missing from config blocks trading instead of allowing
// unlimited risk.
func (l *Ledger) CanTrade(tier config.RiskTier) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.DailyLoss >= tier.DailyLossLimit {
		return false
	}
	if l.state.LifetimeLoss >= tier.MaxTotalLoss {
		return false
	}
	return true
}

// Snapshot returns a copy of the current counters.
func (l *Ledger) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}
