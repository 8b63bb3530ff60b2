package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/codyseavey/berit/internal/cardindex"
	"github.com/codyseavey/berit/internal/metrics"
)

// IndexLoader fetches the card dataset once and builds the lookup index.
type IndexLoader struct {
	scryfall *ScryfallService
	filter   cardindex.Filter
	bulkType string
	logger   *zap.Logger
}

func NewIndexLoader(scryfall *ScryfallService, filter cardindex.Filter, bulkType string, logger *zap.Logger) *IndexLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexLoader{
		scryfall: scryfall,
		filter:   filter,
		bulkType: bulkType,
		logger:   logger,
	}
}

// Load downloads the dataset and builds the index, retrying the whole fetch
// up to attempts times with doubling backoff. A partially downloaded dataset
// is never turned into an index.
func (l *IndexLoader) Load(ctx context.Context, attempts int, backoff time.Duration) (*cardindex.Index, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		builder := cardindex.NewBuilder(l.filter)
		_, err := l.scryfall.FetchCards(ctx, l.bulkType, builder)
		if err == nil {
			idx := builder.Build()
			metrics.IndexBuildDuration.Observe(time.Since(start).Seconds())
			l.report(builder.Stats(), "scryfall")
			return idx, nil
		}

		lastErr = err
		l.logger.Warn("Card dataset fetch failed",
			zap.Int("attempt", attempt),
			zap.Int("attempts", attempts),
			zap.Error(err))

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("failed to load card dataset after %d attempts: %w", attempts, lastErr)
}

// LoadFile builds the index from a bulk card file on disk.
func (l *IndexLoader) LoadFile(path string) (*cardindex.Index, error) {
	start := time.Now()
	builder := cardindex.NewBuilder(l.filter)
	if _, err := LoadCardsFile(path, builder, l.logger); err != nil {
		return nil, err
	}
	idx := builder.Build()
	metrics.IndexBuildDuration.Observe(time.Since(start).Seconds())
	l.report(builder.Stats(), path)
	return idx, nil
}

func (l *IndexLoader) report(stats cardindex.BuildStats, source string) {
	metrics.IndexCards.WithLabelValues("commander").Set(float64(stats.Primary))
	metrics.IndexCards.WithLabelValues("other").Set(float64(stats.Other))
	metrics.RecordsSkippedTotal.WithLabelValues("malformed").Add(float64(stats.Malformed))
	metrics.RecordsSkippedTotal.WithLabelValues("ineligible").Add(float64(stats.Ineligible))
	metrics.RecordsSkippedTotal.WithLabelValues("duplicate").Add(float64(stats.Duplicates))

	l.logger.Info("Card index built",
		zap.String("source", source),
		zap.Int("records", stats.Seen),
		zap.Int("commanders", stats.Primary),
		zap.Int("other", stats.Other),
		zap.Int("malformed", stats.Malformed),
		zap.Int("ineligible", stats.Ineligible),
		zap.Int("duplicates", stats.Duplicates))
}
