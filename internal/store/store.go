// Package store defines the chain persistence contract and its two
// backends: a Postgres-backed implementation and an in-memory one for
// tests and simulate_orders deployments that don't run a database.
package store

import (
	"context"

	"github.com/paaavkata/chainengine/internal/model"
)

// ChainStore is the durable persistence contract the chain engine
// consumes. A successful SaveChain/SaveOrder must reach stable storage
// before the broker mutation it describes is attempted; callers, not
// the store, are responsible for sequencing that.
type ChainStore interface {
	SaveChain(ctx context.Context, chain model.Chain) error
	SaveOrder(ctx context.Context, order model.ChainOrder) error
	AppendEvent(ctx context.Context, event model.ProgressionEvent) error
	LoadActiveChains(ctx context.Context) ([]model.Chain, error)
	LoadOrdersForChain(ctx context.Context, chainID string, state model.OrderState) ([]model.ChainOrder, error)
}
