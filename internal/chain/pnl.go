package chain

import (
	"fmt"

	"github.com/paaavkata/chainengine/internal/broker"
	"github.com/paaavkata/chainengine/internal/config"
	"github.com/paaavkata/chainengine/internal/model"
)

// PnLEvaluator computes the combined unrealised P/L of a chain's
// current-level cohort from live prices. It performs no I/O besides
// the single price read and returns a snapshot value.
type PnLEvaluator struct {
	symbolConfig map[string]config.SymbolConfig
}

func NewPnLEvaluator(symbolConfig map[string]config.SymbolConfig) *PnLEvaluator {
	return &PnLEvaluator{symbolConfig: symbolConfig}
}

// ComputeCohortPnL sums the unrealised P/L of the open trades in the
// chain's current-level cohort. An empty cohort or an unavailable
// price yields 0, which callers must never act on.
func (e *PnLEvaluator) ComputeCohortPnL(c model.Chain, openTrades []model.OpenTrade, priceFeed broker.PriceFeed) (float64, error) {
	var cohort []model.OpenTrade
	for _, t := range openTrades {
		if t.ChainID == c.ChainID && t.Level == c.CurrentLevel && t.State == model.OrderOpen {
			cohort = append(cohort, t)
		}
	}
	if len(cohort) == 0 {
		return 0, nil
	}

	currentPrice := priceFeed.GetPrice(c.Symbol)
	if currentPrice <= 0 {
		return 0, nil
	}

	sc, ok := e.symbolConfig[c.Symbol]
	if !ok {
		return 0, fmt.Errorf("no symbol_config entry for %s", c.Symbol)
	}

	var total float64
	for _, t := range cohort {
		var signedDiff float64
		if t.Direction == model.Buy {
			signedDiff = currentPrice - t.EntryPrice
		} else {
			signedDiff = t.EntryPrice - currentPrice
		}
		pips := signedDiff / sc.PipSize
		total += pips * sc.PipValuePerStdLot * t.LotSize
	}
	return total, nil
}
