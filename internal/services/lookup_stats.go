package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codyseavey/berit/internal/metrics"
	"github.com/codyseavey/berit/internal/models"
)

type lookupKey struct {
	keyword string
	outcome string
}

type lookupEvent struct {
	key  lookupKey
	seen time.Time
}

type lookupAggregate struct {
	hits int64
	last time.Time
}

// LookupStatsService counts lookup outcomes per keyword. Record never blocks
// a message handler; a single background writer batches the counts into
// SQLite.
type LookupStatsService struct {
	db            *gorm.DB
	events        chan lookupEvent
	flushInterval time.Duration
	logger        *zap.Logger
}

// NewLookupStatsService creates the service. Call Start to begin writing.
func NewLookupStatsService(db *gorm.DB, queueSize int, flushInterval time.Duration, logger *zap.Logger) *LookupStatsService {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if flushInterval <= 0 {
		flushInterval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupStatsService{
		db:            db,
		events:        make(chan lookupEvent, queueSize),
		flushInterval: flushInterval,
		logger:        logger,
	}
}

// Record queues one lookup outcome. When the queue is full the event is
// dropped and counted.
func (s *LookupStatsService) Record(keyword, outcome string) {
	ev := lookupEvent{
		key:  lookupKey{keyword: strings.ToLower(keyword), outcome: outcome},
		seen: time.Now(),
	}
	select {
	case s.events <- ev:
	default:
		metrics.LookupStatsDropped.Inc()
	}
}

// Start runs the writer until ctx is cancelled, then drains whatever is still
// queued and flushes it before returning.
func (s *LookupStatsService) Start(ctx context.Context) {
	s.logger.Info("Lookup stats writer started", zap.Duration("flush_interval", s.flushInterval))

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	pending := make(map[lookupKey]*lookupAggregate)
	add := func(ev lookupEvent) {
		agg, ok := pending[ev.key]
		if !ok {
			agg = &lookupAggregate{}
			pending[ev.key] = agg
		}
		agg.hits++
		if ev.seen.After(agg.last) {
			agg.last = ev.seen
		}
		metrics.LookupStatsQueueSize.Set(float64(len(pending)))
	}

	for {
		select {
		case <-ctx.Done():
		drain:
			for {
				select {
				case ev := <-s.events:
					add(ev)
				default:
					break drain
				}
			}
			s.flush(pending)
			s.logger.Info("Lookup stats writer stopped")
			return
		case ev := <-s.events:
			add(ev)
		case <-ticker.C:
			// Counts that failed to write are retried on the next tick.
			if s.flush(pending) {
				pending = make(map[lookupKey]*lookupAggregate)
			}
		}
	}
}

// flush writes pending and reports whether it is safe to discard.
func (s *LookupStatsService) flush(pending map[lookupKey]*lookupAggregate) bool {
	if len(pending) == 0 {
		return true
	}
	if err := s.write(pending); err != nil {
		s.logger.Warn("Failed to write lookup stats", zap.Int("keywords", len(pending)), zap.Error(err))
		return false
	}
	metrics.LookupStatsQueueSize.Set(0)
	s.logger.Debug("Lookup stats flushed", zap.Int("keywords", len(pending)))
	return true
}

func (s *LookupStatsService) write(pending map[lookupKey]*lookupAggregate) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for key, agg := range pending {
			row := models.KeywordLookup{
				Keyword:    key.keyword,
				Outcome:    key.outcome,
				Hits:       agg.hits,
				LastSeenAt: agg.last,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "keyword"}, {Name: "outcome"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"hits":         gorm.Expr("hits + ?", agg.hits),
					"last_seen_at": agg.last,
				}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("failed to upsert lookup %q/%s: %w", key.keyword, key.outcome, err)
			}
		}
		return nil
	})
}

// Top returns the most frequent lookups, optionally restricted to one
// outcome.
func (s *LookupStatsService) Top(outcome string, limit int) ([]models.KeywordLookup, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := s.db.Model(&models.KeywordLookup{})
	if outcome != "" {
		query = query.Where("outcome = ?", outcome)
	}

	var lookups []models.KeywordLookup
	if err := query.Order("hits DESC").Order("keyword ASC").Limit(limit).Find(&lookups).Error; err != nil {
		return nil, fmt.Errorf("failed to query lookup stats: %w", err)
	}
	return lookups, nil
}
