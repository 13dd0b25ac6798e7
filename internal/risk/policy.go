// Package risk implements the risk governor: a stateless sizing and
// validation policy over account balance tiers, and a stateful ledger
// of daily/lifetime P/L counters with loss caps.
package risk

import (
	"fmt"
	"strconv"

	"github.com/paaavkata/chainengine/internal/config"
	"github.com/paaavkata/chainengine/internal/model"
)

// tierThresholds are the fixed balance tiers, descending.
var tierThresholds = []int{100000, 50000, 25000, 10000, 5000}

const minLot = 0.05

// slPipEstimate is the stop-loss pip estimate keyed by a symbol's
// volatility class.
var slPipEstimate = map[model.Volatility]float64{
	model.VolatilityLow:    50,
	model.VolatilityMedium: 75,
	model.VolatilityHigh:   100,
}

// Policy is the stateless risk-sizing and risk-validation component.
// It holds only configuration, never mutable counters — those live in
// Ledger.
type Policy struct {
	manualOverrides map[string]float64
	fixedLotSizes   map[string]float64
	riskTiers       map[string]config.RiskTier
	symbolConfig    map[string]config.SymbolConfig
}

func NewPolicy(cfg *config.Config) *Policy {
	return &Policy{
		manualOverrides: cfg.ManualLotOverrides,
		fixedLotSizes:   cfg.FixedLotSizes,
		riskTiers:       cfg.RiskTiers,
		symbolConfig:    cfg.SymbolConfig,
	}
}

// LotForBalance consults manual overrides keyed by integer balance first;
// absent that it walks the tier thresholds descending and returns the
// first tier's lot size <= balance; absent that, the 0.05 floor.
func (p *Policy) LotForBalance(balance float64) float64 {
	key := strconv.Itoa(int(balance))
	if lot, ok := p.manualOverrides[key]; ok {
		return lot
	}
	for _, t := range tierThresholds {
		if balance >= float64(t) {
			if lot, ok := p.fixedLotSizes[strconv.Itoa(t)]; ok {
				return lot
			}
		}
	}
	return minLot
}

// TierForBalance returns the highest fixed tier <= balance, minimum 5000.
func (p *Policy) TierForBalance(balance float64) string {
	for _, t := range tierThresholds {
		if balance >= float64(t) {
			return strconv.Itoa(t)
		}
	}
	return strconv.Itoa(tierThresholds[len(tierThresholds)-1])
}

// riskTierFor returns the RiskTier for the tier governing balance,
// falling back to the zero-limit tier (nothing permitted) if
// unconfigured rather than silently allowing unlimited risk.
func (p *Policy) riskTierFor(balance float64) config.RiskTier {
	tier := p.TierForBalance(balance)
	if rt, ok := p.riskTiers[tier]; ok {
		return rt
	}
	return config.RiskTier{}
}

// EstimateCohortRisk returns the projected dollar loss of a cohort of
// multiplier orders at lot size, under the level's SL reduction.
func (p *Policy) EstimateCohortRisk(symbol string, lot float64, multiplier int, slReduction float64) (float64, error) {
	sc, ok := p.symbolConfig[symbol]
	if !ok {
		return 0, fmt.Errorf("no symbol_config entry for %s", symbol)
	}
	pips, ok := slPipEstimate[sc.Volatility]
	if !ok {
		return 0, fmt.Errorf("unknown volatility class %q for %s", sc.Volatility, symbol)
	}
	adj := 1 - slReduction/100
	return pips * adj * sc.PipValuePerStdLot * lot * float64(multiplier), nil
}

// ValidateDualOrderRisk checks whether opening a 2x cohort at the given
// balance/symbol/lot would breach the governing tier's daily or
// lifetime loss caps.
func (p *Policy) ValidateDualOrderRisk(ledger *Ledger, balance float64, symbol string, lot float64) (bool, string) {
	sc, ok := p.symbolConfig[symbol]
	if !ok {
		return false, fmt.Sprintf("no symbol_config entry for %s", symbol)
	}
	pips, ok := slPipEstimate[sc.Volatility]
	if !ok {
		return false, fmt.Sprintf("unknown volatility class %q for %s", sc.Volatility, symbol)
	}
	expectedLoss := pips * sc.PipValuePerStdLot * (2 * lot)

	tier := p.riskTierFor(balance)
	snapshot := ledger.Snapshot()

	if snapshot.DailyLoss+expectedLoss > tier.DailyLossLimit {
		return false, fmt.Sprintf("daily loss cap exceeded: %.2f + %.2f > %.2f", snapshot.DailyLoss, expectedLoss, tier.DailyLossLimit)
	}
	if snapshot.LifetimeLoss+expectedLoss > tier.MaxTotalLoss {
		return false, fmt.Sprintf("lifetime loss cap exceeded: %.2f + %.2f > %.2f", snapshot.LifetimeLoss, expectedLoss, tier.MaxTotalLoss)
	}
	return true, ""
}

// RiskTierFor exposes riskTierFor to callers outside the risk package —
// the chain engine's level-up risk gate consults the governing tier's
// caps directly against the ledger.
func (p *Policy) RiskTierFor(balance float64) config.RiskTier {
	return p.riskTierFor(balance)
}
