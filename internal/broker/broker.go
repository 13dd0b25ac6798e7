// Package broker implements the broker and price-feed contracts the
// chain engine consumes: a simulated in-memory broker (used when
// simulate_orders is true, selected at wiring time, never by a
// conditional inside the engine) and a signed, rate-limited REST
// broker.
package broker

import "context"

// Client is the broker contract the engine places and closes orders
// through.
type Client interface {
	GetPrice(ctx context.Context, symbol string) (float64, error)
	GetBalance(ctx context.Context) (float64, error)
	PlaceOrder(ctx context.Context, symbol, side string, lot, price, sl, tp float64, comment string) (string, error)
	CloseOrder(ctx context.Context, orderID string, price float64) (bool, error)
}

// PriceFeed is the narrower collaborator P/L evaluation and level-up
// need for a single current price. A return of 0 means unavailable.
type PriceFeed interface {
	GetPrice(symbol string) float64
}
