package ledger

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// PriceProvider yields the next price for a held fund on each tick. The
// simulated random walk and a live quote feed both satisfy it, so the
// ledger never knows where prices come from.
type PriceProvider interface {
	NextPrice(ctx context.Context, fundCode string, current float64) (float64, error)
}

// RandomWalkProvider simulates a price feed: each tick moves the price by a
// uniform ±3%, rounded to 4 decimals like a published NAV.
type RandomWalkProvider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomWalkProvider creates a simulated price feed.
func NewRandomWalkProvider() *RandomWalkProvider {
	return &RandomWalkProvider{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NextPrice returns the current price moved by a uniform random ±3%.
func (p *RandomWalkProvider) NextPrice(_ context.Context, _ string, current float64) (float64, error) {
	p.mu.Lock()
	change := (p.rng.Float64()*2 - 1) * 0.03
	p.mu.Unlock()

	next := current * (1 + change)
	return math.Round(next*10000) / 10000, nil
}

// QuoteFunc adapts a quote-lookup function into a PriceProvider for
// live-feed deployments.
type QuoteFunc func(ctx context.Context, fundCode string) (float64, error)

// NextPrice resolves the next price through the wrapped lookup. The
// current price is ignored, the feed is authoritative.
func (f QuoteFunc) NextPrice(ctx context.Context, fundCode string, _ float64) (float64, error) {
	return f(ctx, fundCode)
}
