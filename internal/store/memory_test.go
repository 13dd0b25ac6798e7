package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paaavkata/chainengine/internal/model"
)

func TestMemoryStore_SaveAndLoadActiveChains(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	active := model.Chain{ChainID: "PROFIT_XAUUSD_aaaaaaaa", Status: model.StatusActive, CurrentLevel: 1}
	stopped := model.Chain{ChainID: "PROFIT_XAUUSD_bbbbbbbb", Status: model.StatusStopped}

	require.NoError(t, s.SaveChain(ctx, active))
	require.NoError(t, s.SaveChain(ctx, stopped))

	chains, err := s.LoadActiveChains(ctx)
	require.NoError(t, err)
	require.Len(t, chains, 1)
	assert.Equal(t, "PROFIT_XAUUSD_aaaaaaaa", chains[0].ChainID)
}

func TestMemoryStore_LoadOrdersForChainFiltersByState(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveOrder(ctx, model.ChainOrder{OrderID: "1", ChainID: "c1", State: model.OrderOpen}))
	require.NoError(t, s.SaveOrder(ctx, model.ChainOrder{OrderID: "2", ChainID: "c1", State: model.OrderClosedTarget}))
	require.NoError(t, s.SaveOrder(ctx, model.ChainOrder{OrderID: "3", ChainID: "c2", State: model.OrderOpen}))

	open, err := s.LoadOrdersForChain(ctx, "c1", model.OrderOpen)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "1", open[0].OrderID)
}

func TestMemoryStore_AppendEventAccumulates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.AppendEvent(ctx, model.ProgressionEvent{ChainID: "c1", FromLevel: 0, ToLevel: 1, Ts: time.Now()}))
	require.NoError(t, s.AppendEvent(ctx, model.ProgressionEvent{ChainID: "c1", FromLevel: 1, ToLevel: 2, Ts: time.Now()}))

	assert.Len(t, s.Events(), 2)
}
