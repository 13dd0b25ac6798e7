package risk

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/paaavkata/chainengine/internal/config"
)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig() *config.Config {
	return &config.Config{
		ManualLotOverrides: map[string]float64{"7500": 0.2},
		FixedLotSizes: map[string]float64{
			"5000": 0.05, "10000": 0.1, "25000": 0.25, "50000": 0.5, "100000": 1.0,
		},
		RiskTiers: map[string]config.RiskTier{
			"5000":  {DailyLossLimit: 250, MaxTotalLoss: 1000},
			"10000": {DailyLossLimit: 500, MaxTotalLoss: 2000},
		},
		SymbolConfig: map[string]config.SymbolConfig{
			"XAUUSD": {PipSize: 0.1, PipValuePerStdLot: 10, Volatility: "MEDIUM"},
		},
	}
}

func TestPolicy_LotForBalance_ManualOverride(t *testing.T) {
	p := NewPolicy(testConfig())
	assert.Equal(t, 0.2, p.LotForBalance(7500))
}

func TestPolicy_LotForBalance_TierWalk(t *testing.T) {
	p := NewPolicy(testConfig())
	assert.Equal(t, 0.1, p.LotForBalance(12000))
	assert.Equal(t, 0.05, p.LotForBalance(5000))
}

func TestPolicy_LotForBalance_BelowAllTiers(t *testing.T) {
	p := NewPolicy(testConfig())
	assert.Equal(t, minLot, p.LotForBalance(100))
}

func TestPolicy_TierForBalance(t *testing.T) {
	p := NewPolicy(testConfig())
	assert.Equal(t, "10000", p.TierForBalance(15000))
	assert.Equal(t, "5000", p.TierForBalance(100))
}

func TestPolicy_EstimateCohortRisk(t *testing.T) {
	p := NewPolicy(testConfig())
	risk, err := p.EstimateCohortRisk("XAUUSD", 0.05, 2, 10)
	assert := assert.New(t)
	assert.NoError(err)
	// 75 pips * (1-0.1) * 10 * 0.05 * 2 = 67.5
	assert.InDelta(67.5, risk, 0.0001)
}

func TestPolicy_EstimateCohortRisk_UnknownSymbol(t *testing.T) {
	p := NewPolicy(testConfig())
	_, err := p.EstimateCohortRisk("EURUSD", 0.05, 2, 10)
	assert.Error(t, err)
}

func TestPolicy_ValidateDualOrderRisk(t *testing.T) {
	store := NewFileStore(t.TempDir()+"/stats.json", newTestLogger())
	ledger := NewLedger(store)

	p := NewPolicy(testConfig())
	ok, reason := p.ValidateDualOrderRisk(ledger, 5000, "XAUUSD", 0.05)
	assert.True(t, ok, reason)

	ledger.RecordTrade(-245)
	ok, reason = p.ValidateDualOrderRisk(ledger, 5000, "XAUUSD", 0.05)
	assert.False(t, ok, reason)
}
