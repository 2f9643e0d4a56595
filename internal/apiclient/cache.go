package apiclient

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jonathan/portfolio-site/internal/types"
)

// PortfolioSource is anything that can produce a portfolio snapshot.
// *Client and *SnapshotCache both satisfy it.
type PortfolioSource interface {
	GetPortfolio(ctx context.Context) (*types.PortfolioSnapshot, error)
}

// portfolioKey is the memo key for the snapshot resource.
const portfolioKey = "portfolio"

// SnapshotCache memoizes the snapshot so sections mounted together share one
// fetch. Concurrent misses collapse into a single request. Failures are not
// cached. The memo lives until Invalidate is called.
type SnapshotCache struct {
	source PortfolioSource
	group  singleflight.Group

	mu   sync.RWMutex
	memo map[string]*types.PortfolioSnapshot
}

// NewSnapshotCache wraps source with a fetch-once memo.
func NewSnapshotCache(source PortfolioSource) *SnapshotCache {
	return &SnapshotCache{
		source: source,
		memo:   make(map[string]*types.PortfolioSnapshot),
	}
}

// GetPortfolio returns the memoized snapshot, fetching it on first use.
// The shared fetch runs detached from any one caller's cancellation, so a
// caller that gives up only fails itself. Callers that joined keep waiting,
// bounded by their own ctx and the source's timeout.
func (c *SnapshotCache) GetPortfolio(ctx context.Context) (*types.PortfolioSnapshot, error) {
	c.mu.RLock()
	snap, ok := c.memo[portfolioKey]
	c.mu.RUnlock()
	if ok {
		return snap, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(portfolioKey, func() (any, error) {
		snap, err := c.source.GetPortfolio(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.memo[portfolioKey] = snap
		c.mu.Unlock()
		return snap, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*types.PortfolioSnapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops the memoized snapshot; the next GetPortfolio refetches.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	delete(c.memo, portfolioKey)
	c.mu.Unlock()
	c.group.Forget(portfolioKey)
}
