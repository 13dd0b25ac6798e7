// Package pip computes stop-loss and take-profit prices from a
// symbol's pip geometry. The stop distance uses the same
// volatility-class pip estimate the risk policy projects losses with,
// so sizing and stop placement stay consistent.
package pip

import (
	"fmt"

	"github.com/paaavkata/chainengine/internal/config"
	"github.com/paaavkata/chainengine/internal/model"
)

var slPipEstimate = map[model.Volatility]float64{
	model.VolatilityLow:    50,
	model.VolatilityMedium: 75,
	model.VolatilityHigh:   100,
}

// Calculator is the default PipCalculator: stop distance is the
// symbol's volatility-class pip estimate scaled by the level's SL
// adjustment and pip size; take profit mirrors it by the configured
// reward:risk ratio.
type Calculator struct {
	symbolConfig map[string]config.SymbolConfig
}

func NewCalculator(symbolConfig map[string]config.SymbolConfig) *Calculator {
	return &Calculator{symbolConfig: symbolConfig}
}

// StopLoss returns the stop price and its distance from px for a
// buy/sell order at lot size, given the level's slAdj (1 - reduction/100).
func (c *Calculator) StopLoss(symbol string, px float64, side model.Direction, lot, balance, slAdj float64) (slPrice, slDistance float64, err error) {
	sc, ok := c.symbolConfig[symbol]
	if !ok {
		return 0, 0, fmt.Errorf("no symbol_config entry for %s", symbol)
	}
	pips, ok := slPipEstimate[sc.Volatility]
	if !ok {
		return 0, 0, fmt.Errorf("unknown volatility class %q for %s", sc.Volatility, symbol)
	}

	slDistance = pips * slAdj * sc.PipSize
	if side == model.Buy {
		slPrice = px - slDistance
	} else {
		slPrice = px + slDistance
	}
	return slPrice, slDistance, nil
}

// TakeProfit mirrors the stop distance by rr on the opposite side of px.
func (c *Calculator) TakeProfit(px, sl float64, side model.Direction, rr float64) float64 {
	distance := px - sl
	if distance < 0 {
		distance = -distance
	}
	if side == model.Buy {
		return px + rr*distance
	}
	return px - rr*distance
}
