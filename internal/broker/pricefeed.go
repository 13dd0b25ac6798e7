package broker

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// BrokerPriceFeed adapts a Client into the narrower PriceFeed
// contract. A failed read surfaces as 0, the same as an unavailable
// price.
type BrokerPriceFeed struct {
	client  Client
	timeout time.Duration
	logger  *logrus.Logger
}

func NewBrokerPriceFeed(client Client, timeout time.Duration, logger *logrus.Logger) *BrokerPriceFeed {
	return &BrokerPriceFeed{client: client, timeout: timeout, logger: logger}
}

func (f *BrokerPriceFeed) GetPrice(symbol string) float64 {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	price, err := f.client.GetPrice(ctx, symbol)
	if err != nil {
		f.logger.WithError(err).WithField("symbol", symbol).Warn("price read failed, treating as unavailable")
		return 0
	}
	return price
}

// CachedPriceFeed fronts any PriceFeed with a short TTL so many chains
// sharing a symbol within one scheduling pass don't each cause a
// broker round trip.
type CachedPriceFeed struct {
	mu    sync.Mutex
	inner PriceFeed
	ttl   time.Duration
	cache map[string]cachedPrice
}

type cachedPrice struct {
	price   float64
	fetched time.Time
}

func NewCachedPriceFeed(inner PriceFeed, ttl time.Duration) *CachedPriceFeed {
	return &CachedPriceFeed{inner: inner, ttl: ttl, cache: make(map[string]cachedPrice)}
}

func (f *CachedPriceFeed) GetPrice(symbol string) float64 {
	f.mu.Lock()
	if entry, ok := f.cache[symbol]; ok && time.Since(entry.fetched) < f.ttl {
		f.mu.Unlock()
		return entry.price
	}
	f.mu.Unlock()

	price := f.inner.GetPrice(symbol)

	f.mu.Lock()
	f.cache[symbol] = cachedPrice{price: price, fetched: time.Now()}
	f.mu.Unlock()
	return price
}
