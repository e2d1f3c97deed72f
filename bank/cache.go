package bank

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// CacheOptions tune CachedQuotes.
type CacheOptions struct {
	// FetchTimeout bounds one shared upstream fetch. The fetch is detached
	// from the caller that started it so a canceled caller does not fail the
	// others waiting on the same symbol.
	FetchTimeout time.Duration
}

// CachedQuotes memoizes a QuoteSource for a fixed TTL. Concurrent misses for
// the same symbol share one upstream fetch. Errors are not cached.
type CachedQuotes struct {
	source QuoteSource
	cache  *expirable.LRU[string, Quote]
	group  singleflight.Group
	opts   CacheOptions
}

// NewCachedQuotes wraps source with an LRU of size entries expiring after ttl.
func NewCachedQuotes(source QuoteSource, size int, ttl time.Duration, optFns ...func(o *CacheOptions)) *CachedQuotes {
	opts := CacheOptions{FetchTimeout: 10 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}
	if size <= 0 {
		size = 128
	}
	return &CachedQuotes{
		source: source,
		cache:  expirable.NewLRU[string, Quote](size, nil, ttl),
		opts:   opts,
	}
}

// Quote implements QuoteSource. Each caller waits on its own ctx while the
// shared fetch runs under FetchTimeout.
func (c *CachedQuotes) Quote(ctx context.Context, symbol string) (Quote, error) {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	if q, ok := c.cache.Get(key); ok {
		return q, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(fetchCtx, c.opts.FetchTimeout)
		defer cancel()
		q, err := c.source.Quote(fctx, key)
		if err != nil {
			return Quote{}, err
		}
		c.cache.Add(key, q)
		return q, nil
	})

	select {
	case <-ctx.Done():
		return Quote{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Quote{}, res.Err
		}
		return res.Val.(Quote), nil
	}
}

// Len returns the number of cached quotes.
func (c *CachedQuotes) Len() int { return c.cache.Len() }
