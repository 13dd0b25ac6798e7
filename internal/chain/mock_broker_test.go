package chain

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// mockBroker is a testify/mock-based stand-in for broker.Client.
type mockBroker struct {
	mock.Mock
}

func (m *mockBroker) GetPrice(ctx context.Context, symbol string) (float64, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockBroker) GetBalance(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockBroker) PlaceOrder(ctx context.Context, symbol, side string, lot, price, sl, tp float64, comment string) (string, error) {
	args := m.Called(ctx, symbol, side, lot, price, sl, tp, comment)
	return args.String(0), args.Error(1)
}

func (m *mockBroker) CloseOrder(ctx context.Context, orderID string, price float64) (bool, error) {
	args := m.Called(ctx, orderID, price)
	return args.Bool(0), args.Error(1)
}

// mockPriceFeed lets tests set a fixed/changing price without a broker
// round trip.
type mockPriceFeed struct {
	price float64
}

func (f *mockPriceFeed) GetPrice(symbol string) float64 { return f.price }

// mockNotifier captures sent messages for assertions.
type mockNotifier struct {
	sent []string
}

func (n *mockNotifier) Send(text string) error {
	n.sent = append(n.sent, text)
	return nil
}
