package broker

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubFeed struct {
	calls int32
	price float64
}

func (f *stubFeed) GetPrice(symbol string) float64 {
	atomic.AddInt32(&f.calls, 1)
	return f.price
}

func TestCachedPriceFeed_DedupesWithinTTL(t *testing.T) {
	stub := &stubFeed{price: 2002.0}
	feed := NewCachedPriceFeed(stub, 50*time.Millisecond)

	for i := 0; i < 5; i++ {
		assert.Equal(t, 2002.0, feed.GetPrice("XAUUSD"))
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&stub.calls))
}

func TestCachedPriceFeed_RefetchesAfterTTL(t *testing.T) {
	stub := &stubFeed{price: 2002.0}
	feed := NewCachedPriceFeed(stub, 10*time.Millisecond)

	feed.GetPrice("XAUUSD")
	time.Sleep(20 * time.Millisecond)
	feed.GetPrice("XAUUSD")

	assert.Equal(t, int32(2), atomic.LoadInt32(&stub.calls))
}
