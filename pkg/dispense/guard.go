// Package dispense enforces a minimum gap between two dispenses of the same
// product, standing in for the machine's mechanical cycle time.
//
// A guard rejects instead of waiting: TryAcquire either arms a fresh window
// for the product or reports how long the current window still has to run.
//
//	g := dispense.NewMemoryGuard(5 * time.Second)
//	defer g.Close()
//
//	d, err := g.TryAcquire(ctx, "coke")
//	if !d.Allowed {
//	    // retry after d.Remaining
//	}
package dispense

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// Decision is the outcome of TryAcquire.
type Decision struct {
	Allowed   bool
	Remaining time.Duration
}

// Guard is a per-product cooldown tracker. Check-and-arm is atomic per key.
type Guard interface {
	TryAcquire(ctx context.Context, productID string) (Decision, error)
	// Driver names the backend in metrics and logs.
	Driver() string
	Close() error
}

const shardCount = 64

type shard struct {
	mu        sync.Mutex
	deadlines map[string]time.Time
}

// MemoryGuard keeps one deadline per product in a sharded map. Expired
// entries are dropped on access and by a periodic sweep, so the map only
// holds products dispensed within the last window.
type MemoryGuard struct {
	window time.Duration
	now    func() time.Time
	shards [shardCount]*shard

	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Option configures a MemoryGuard.
type Option func(*MemoryGuard)

// WithClock replaces time.Now. Tests use it to move time by hand.
func WithClock(now func() time.Time) Option {
	return func(g *MemoryGuard) { g.now = now }
}

// NewMemoryGuard returns a guard with the given window. A zero window
// allows every request. The sweep runs once per window (at least once a
// second) until Close.
func NewMemoryGuard(window time.Duration, opts ...Option) *MemoryGuard {
	g := &MemoryGuard{
		window: window,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	for i := range g.shards {
		g.shards[i] = &shard{deadlines: make(map[string]time.Time)}
	}
	for _, opt := range opts {
		opt(g)
	}

	if window > 0 {
		interval := window
		if interval < time.Second {
			interval = time.Second
		}
		g.wg.Add(1)
		go g.sweepLoop(interval)
	}
	return g
}

func (g *MemoryGuard) shardFor(productID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(productID))
	return g.shards[h.Sum32()%shardCount]
}

// TryAcquire arms a new window for productID unless one is still running.
func (g *MemoryGuard) TryAcquire(_ context.Context, productID string) (Decision, error) {
	if g.window <= 0 {
		return Decision{Allowed: true}, nil
	}

	s := g.shardFor(productID)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := g.now()
	if deadline, ok := s.deadlines[productID]; ok {
		if now.Before(deadline) {
			return Decision{Remaining: deadline.Sub(now)}, nil
		}
		delete(s.deadlines, productID)
	}

	s.deadlines[productID] = now.Add(g.window)
	return Decision{Allowed: true}, nil
}

func (g *MemoryGuard) Driver() string { return "memory" }

// Len reports how many products are currently tracked.
func (g *MemoryGuard) Len() int {
	n := 0
	for _, s := range g.shards {
		s.mu.Lock()
		n += len(s.deadlines)
		s.mu.Unlock()
	}
	return n
}

// Sweep drops every expired entry.
func (g *MemoryGuard) Sweep() {
	now := g.now()
	for _, s := range g.shards {
		s.mu.Lock()
		for id, deadline := range s.deadlines {
			if !now.Before(deadline) {
				delete(s.deadlines, id)
			}
		}
		s.mu.Unlock()
	}
}

func (g *MemoryGuard) sweepLoop(interval time.Duration) {
	defer g.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.Sweep()
		case <-g.stop:
			return
		}
	}
}

// Close stops the sweep goroutine. Safe to call more than once.
func (g *MemoryGuard) Close() error {
	g.closeOnce.Do(func() {
		close(g.stop)
	})
	g.wg.Wait()
	return nil
}
