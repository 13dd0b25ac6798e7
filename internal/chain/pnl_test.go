package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paaavkata/chainengine/internal/config"
	"github.com/paaavkata/chainengine/internal/model"
)

func xauConfig() map[string]config.SymbolConfig {
	return map[string]config.SymbolConfig{
		"XAUUSD": {PipSize: 0.1, PipValuePerStdLot: 10, Volatility: model.VolatilityMedium},
	}
}

// A buy seed at 2000.0 lot 0.05 with price at 2002.0 yields exactly
// $10: 20 pips x $10/pip per std lot x 0.05.
func TestComputeCohortPnL_TargetHit(t *testing.T) {
	e := NewPnLEvaluator(xauConfig())
	c := model.Chain{ChainID: "c1", Symbol: "XAUUSD", CurrentLevel: 0}
	trades := []model.OpenTrade{
		{OrderID: "o1", ChainID: "c1", Level: 0, Symbol: "XAUUSD", Direction: model.Buy, EntryPrice: 2000.0, LotSize: 0.05, State: model.OrderOpen},
	}
	feed := &mockPriceFeed{price: 2002.0}

	pnl, err := e.ComputeCohortPnL(c, trades, feed)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, pnl, 0.0001)
}

// Price at 2001.9 yields $9.50.
func TestComputeCohortPnL_TargetNotHit(t *testing.T) {
	e := NewPnLEvaluator(xauConfig())
	c := model.Chain{ChainID: "c1", Symbol: "XAUUSD", CurrentLevel: 0}
	trades := []model.OpenTrade{
		{OrderID: "o1", ChainID: "c1", Level: 0, Symbol: "XAUUSD", Direction: model.Buy, EntryPrice: 2000.0, LotSize: 0.05, State: model.OrderOpen},
	}
	feed := &mockPriceFeed{price: 2001.9}

	pnl, err := e.ComputeCohortPnL(c, trades, feed)
	require.NoError(t, err)
	assert.InDelta(t, 9.5, pnl, 0.0001)
}

// A zero price read must return 0, never a stale cached figure.
func TestComputeCohortPnL_PriceUnavailable(t *testing.T) {
	e := NewPnLEvaluator(xauConfig())
	c := model.Chain{ChainID: "c1", Symbol: "XAUUSD", CurrentLevel: 0}
	trades := []model.OpenTrade{
		{OrderID: "o1", ChainID: "c1", Level: 0, Symbol: "XAUUSD", Direction: model.Buy, EntryPrice: 2000.0, LotSize: 0.05, State: model.OrderOpen},
	}
	feed := &mockPriceFeed{price: 0}

	pnl, err := e.ComputeCohortPnL(c, trades, feed)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pnl)
}

func TestComputeCohortPnL_EmptyCohortIsZero(t *testing.T) {
	e := NewPnLEvaluator(xauConfig())
	c := model.Chain{ChainID: "c1", Symbol: "XAUUSD", CurrentLevel: 3}
	feed := &mockPriceFeed{price: 2002.0}

	pnl, err := e.ComputeCohortPnL(c, nil, feed)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pnl)
}

func TestComputeCohortPnL_SellDirectionSignFlips(t *testing.T) {
	e := NewPnLEvaluator(xauConfig())
	c := model.Chain{ChainID: "c1", Symbol: "XAUUSD", CurrentLevel: 0}
	trades := []model.OpenTrade{
		{OrderID: "o1", ChainID: "c1", Level: 0, Symbol: "XAUUSD", Direction: model.Sell, EntryPrice: 2000.0, LotSize: 0.05, State: model.OrderOpen},
	}
	feed := &mockPriceFeed{price: 1998.0}

	pnl, err := e.ComputeCohortPnL(c, trades, feed)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, pnl, 0.0001)
}

func TestComputeCohortPnL_IgnoresOtherLevelsAndChains(t *testing.T) {
	e := NewPnLEvaluator(xauConfig())
	c := model.Chain{ChainID: "c1", Symbol: "XAUUSD", CurrentLevel: 1}
	trades := []model.OpenTrade{
		{OrderID: "o1", ChainID: "c1", Level: 0, Symbol: "XAUUSD", Direction: model.Buy, EntryPrice: 2000.0, LotSize: 1, State: model.OrderOpen},
		{OrderID: "o2", ChainID: "other", Level: 1, Symbol: "XAUUSD", Direction: model.Buy, EntryPrice: 2000.0, LotSize: 1, State: model.OrderOpen},
		{OrderID: "o3", ChainID: "c1", Level: 1, Symbol: "XAUUSD", Direction: model.Buy, EntryPrice: 2000.0, LotSize: 0.1, State: model.OrderClosedTarget},
	}
	feed := &mockPriceFeed{price: 2010.0}

	pnl, err := e.ComputeCohortPnL(c, trades, feed)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pnl, "no OPEN trade at level 1 for c1 belongs to the cohort")
}
