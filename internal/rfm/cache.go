package rfm

import (
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"tokodash/internal/dataset"
)

// Cache memoizes Calculate by the content fingerprints of the orders and
// payments tables. Repeated renders of one dataset reuse the result; callers
// that swap datasets purge it themselves.
type Cache struct {
	results *lru.Cache[string, *Result]
	window  time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewCache(size int, window time.Duration) (*Cache, error) {
	results, err := lru.New[string, *Result](size)
	if err != nil {
		return nil, fmt.Errorf("rfm cache: %w", err)
	}
	return &Cache{results: results, window: window}, nil
}

// Window is the trailing window every cached result covers.
func (c *Cache) Window() time.Duration { return c.window }

// Get returns the RFM result for t, computing it on a miss.
// Tables without fingerprints are computed every time.
func (c *Cache) Get(t *dataset.Tables) (*Result, error) {
	orders, payments := t.Fingerprint(dataset.TableOrders), t.Fingerprint(dataset.TablePayments)
	if orders == "" || payments == "" {
		return Calculate(t.Orders, t.Payments, c.window)
	}
	key := orders + "/" + payments + "/" + c.window.String()
	if res, ok := c.results.Get(key); ok {
		c.hits.Add(1)
		return res, nil
	}
	c.misses.Add(1)
	res, err := Calculate(t.Orders, t.Payments, c.window)
	if err != nil {
		return nil, err
	}
	c.results.Add(key, res)
	return res, nil
}

// Purge drops every cached result.
func (c *Cache) Purge() { c.results.Purge() }

type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

func (c *Cache) Stats() CacheStats {
	return CacheStats{Entries: c.results.Len(), Hits: c.hits.Load(), Misses: c.misses.Load()}
}
