package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paaavkata/chainengine/internal/model"
)

type recordingClearer struct {
	cleared []string
}

func (c *recordingClearer) ClearChainTag(_ context.Context, orderID string) error {
	c.cleared = append(c.cleared, orderID)
	return nil
}

// The store holds active chain C1 at level 1; an open trade is tagged
// to an absent chain C2. After reconciliation C1 is registered with
// its open trade, and the C2-tagged trade is cleared as an orphan.
func TestReconcile_RecoveryWithOrphan(t *testing.T) {
	h := newHarness(t, testEngineConfig())
	sched := testEngineConfig().Schedule

	require.NoError(t, h.st.SaveChain(context.Background(), model.Chain{
		ChainID: "C1", Symbol: "XAUUSD", Direction: model.Buy,
		CurrentLevel: 1, MaxLevel: 4, Status: model.StatusActive, Schedule: sched,
	}))

	reconciler := NewReconciler(h.engine, testLogger())
	clearer := &recordingClearer{}

	openTrades := []model.OpenTrade{
		{OrderID: "o1", ChainID: "C1", Level: 1, Symbol: "XAUUSD", State: model.OrderOpen},
		{OrderID: "o2", ChainID: "C2", Level: 0, Symbol: "XAUUSD", State: model.OrderOpen},
	}

	require.NoError(t, reconciler.Reconcile(context.Background(), openTrades, clearer))

	got, ok := h.engine.Chain("C1")
	require.True(t, ok)
	assert.Equal(t, []string{"o1"}, got.ActiveOrderIDs)

	assert.Equal(t, []string{"o2"}, clearer.cleared)
}

// The schedule attached to a recovered chain comes from the persisted
// row, not live config, so a config change between restarts cannot
// silently rewrite an in-flight chain's targets.
func TestReconcile_SchedulePersistsFromChainRow(t *testing.T) {
	h := newHarness(t, testEngineConfig())
	staleSchedule := model.Schedule{
		ProfitTargets: []float64{5, 50},
		Multipliers:   []int{1, 3},
		SLReductions:  []float64{0, 15},
	}
	require.NoError(t, h.st.SaveChain(context.Background(), model.Chain{
		ChainID: "C1", Symbol: "XAUUSD", Direction: model.Buy,
		CurrentLevel: 0, MaxLevel: 1, Status: model.StatusActive, Schedule: staleSchedule,
	}))

	reconciler := NewReconciler(h.engine, testLogger())
	require.NoError(t, reconciler.Reconcile(context.Background(), nil, nil))

	got, ok := h.engine.Chain("C1")
	require.True(t, ok)
	assert.Equal(t, staleSchedule, got.Schedule)
}

func TestReconcile_IgnoresUntaggedOpenTrades(t *testing.T) {
	h := newHarness(t, testEngineConfig())
	reconciler := NewReconciler(h.engine, testLogger())

	openTrades := []model.OpenTrade{{OrderID: "o1", ChainID: "", Level: 0}}
	clearer := &recordingClearer{}

	require.NoError(t, reconciler.Reconcile(context.Background(), openTrades, clearer))
	assert.Empty(t, clearer.cleared)
}
