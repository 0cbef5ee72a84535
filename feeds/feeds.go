package feeds

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"luminor/config"
	"luminor/models"

	log "github.com/sirupsen/logrus"
)

// ErrUnknownGroup marks a request for a feed group that is not configured.
var ErrUnknownGroup = errors.New("unknown feed group")

// Aggregator serves merged feed documents per configured group, refreshing
// through the injected cache. Concurrent misses for the same group may
// refresh redundantly; the last refresh wins the cache slot.
type Aggregator struct {
	groups  map[string][]string
	cache   *Cache
	fetcher *Fetcher
}

func NewAggregator(cfg *config.TomlConfig, cache *Cache, fetcher *Fetcher) *Aggregator {
	groups := make(map[string][]string, len(cfg.Groups))
	for _, group := range cfg.Groups {
		groups[group.ID] = group.URLs
	}

	return &Aggregator{
		groups:  groups,
		cache:   cache,
		fetcher: fetcher,
	}
}

// Get returns the aggregated document for group, from cache when fresh.
func (a *Aggregator) Get(ctx context.Context, group string) (*models.GroupFeeds, error) {
	urls, ok := a.groups[group]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, group)
	}

	now := time.Now()
	if payload, ok := a.cache.Get(group, now); ok {
		cacheHits.Inc()
		return payload, nil
	}
	cacheMisses.Inc()

	payload := a.refresh(ctx, group, urls)
	a.cache.Set(group, payload, now)

	return payload, nil
}

// refresh fetches every URL of the group concurrently. The result keeps the
// configured URL order and is only returned once all fetches have settled.
func (a *Aggregator) refresh(ctx context.Context, group string, urls []string) *models.GroupFeeds {
	start := time.Now()
	results := make([]models.SourceFeed, len(urls))

	var wg sync.WaitGroup
	for i, url := range urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			results[i] = a.fetcher.Fetch(ctx, url)
		}(i, url)
	}
	wg.Wait()

	failed := 0
	for _, result := range results {
		if result.Error != "" {
			failed++
		}
	}

	refreshDuration.Observe(time.Since(start).Seconds())
	log.WithFields(log.Fields{
		"group":   group,
		"sources": len(urls),
		"failed":  failed,
		"latency": time.Since(start),
	}).Info("Refreshed feed group")

	return &models.GroupFeeds{
		GeneratedAt: time.Now().UTC(),
		Feeds:       results,
	}
}
