package cardindex

import (
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codyseavey/berit/internal/metrics"
)

type matchResult struct {
	entry Entry
	found bool
}

// Matcher resolves query patterns against an Index.
type Matcher struct {
	index *Index
	cache *lru.Cache[string, matchResult] // normalized pattern -> result, nil when disabled
}

// NewMatcher creates a matcher over index. A positive cacheSize memoizes that
// many recent patterns, misses included; zero disables the cache.
func NewMatcher(index *Index, cacheSize int) (*Matcher, error) {
	m := &Matcher{index: index}
	if cacheSize > 0 {
		cache, err := lru.New[string, matchResult](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create resolve cache: %w", err)
		}
		m.cache = cache
	}
	return m, nil
}

// Resolve finds the card for pattern. An exact name always wins. Otherwise the
// first card in index order whose name contains the pattern is returned, which
// prefers commanders and then earlier dataset entries.
func (m *Matcher) Resolve(pattern string) (Entry, bool) {
	key := NormalizeName(pattern)
	if key == "" {
		return Entry{}, false
	}

	if m.cache != nil {
		if r, ok := m.cache.Get(key); ok {
			metrics.ResolveCacheHits.Inc()
			return r.entry, r.found
		}
		metrics.ResolveCacheMisses.Inc()
	}

	start := time.Now()
	entry, found := m.resolve(key)
	metrics.ResolveDuration.Observe(time.Since(start).Seconds())

	if m.cache != nil {
		m.cache.Add(key, matchResult{entry: entry, found: found})
	}
	return entry, found
}

func (m *Matcher) resolve(key string) (Entry, bool) {
	if i, ok := m.index.byName[key]; ok {
		return m.index.entries[i], true
	}
	for _, e := range m.index.entries {
		if strings.Contains(e.Name, key) {
			return e, true
		}
	}
	return Entry{}, false
}
