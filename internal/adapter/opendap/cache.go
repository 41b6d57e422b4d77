package opendap

import (
	"container/list"
	"context"
	"sync"

	"github.com/couchcryptid/surf-data-etl/internal/domain"
	"github.com/couchcryptid/surf-data-etl/internal/observability"
)

// CachedOpener wraps a DatasetOpener with an in-memory LRU of opened runs,
// so repeated cycles within the same run skip the structure and axis reads.
type CachedOpener struct {
	inner   domain.DatasetOpener
	cache   *datasetCache
	metrics *observability.Metrics
}

// NewCachedOpener creates a cache decorator around an opener. A maxEntries
// below one disables caching.
func NewCachedOpener(inner domain.DatasetOpener, maxEntries int, metrics *observability.Metrics) *CachedOpener {
	return &CachedOpener{
		inner:   inner,
		cache:   newDatasetCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedOpener) Open(ctx context.Context, run domain.RunCandidate) (domain.GridDataset, error) {
	key := run.String()
	if ds, ok := c.cache.get(key); ok {
		c.metrics.OpenDAPCache.WithLabelValues("hit").Inc()
		return ds, nil
	}
	c.metrics.OpenDAPCache.WithLabelValues("miss").Inc()

	ds, err := c.inner.Open(ctx, run)
	if err != nil {
		// Failures are not cached; a run that is not published yet may appear later.
		return nil, err
	}
	c.cache.put(key, ds)
	return ds, nil
}

// datasetCache is a thread-safe LRU keyed by run.
type datasetCache struct {
	maxEntries int
	mu         sync.Mutex
	order      *list.List // front is most recently used
	entries    map[string]*list.Element
}

type cacheEntry struct {
	key     string
	dataset domain.GridDataset
}

func newDatasetCache(maxEntries int) *datasetCache {
	return &datasetCache{
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *datasetCache) get(key string) (domain.GridDataset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).dataset, true
}

func (c *datasetCache) put(key string, ds domain.GridDataset) {
	if c.maxEntries < 1 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).dataset = ds
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, dataset: ds})

	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *datasetCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
