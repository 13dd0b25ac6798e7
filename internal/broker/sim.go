package broker

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
)

// SimBroker is the simulate_orders=true implementation of Client:
// order ids are synthetic values in [100000,999999], closes succeed
// for any open order, and prices/balance are whatever the harness
// sets. Deployments running without a live broker wire this in.
type SimBroker struct {
	mu      sync.RWMutex
	prices  map[string]float64
	balance float64
	open    map[string]bool
}

func NewSimBroker(balance float64) *SimBroker {
	return &SimBroker{
		prices:  make(map[string]float64),
		balance: balance,
		open:    make(map[string]bool),
	}
}

func (s *SimBroker) SetPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = price
}

func (s *SimBroker) SetBalance(balance float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = balance
}

func (s *SimBroker) GetPrice(_ context.Context, symbol string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prices[symbol], nil
}

func (s *SimBroker) GetBalance(_ context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance, nil
}

func (s *SimBroker) PlaceOrder(_ context.Context, symbol, side string, lot, price, sl, tp float64, comment string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generating simulated order id: %w", err)
	}
	id := fmt.Sprintf("%d", 100000+n.Int64())
	s.mu.Lock()
	s.open[id] = true
	s.mu.Unlock()
	return id, nil
}

func (s *SimBroker) CloseOrder(_ context.Context, orderID string, _ float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open[orderID] {
		return false, nil
	}
	delete(s.open, orderID)
	return true, nil
}
