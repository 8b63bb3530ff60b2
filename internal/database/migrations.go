package database

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/codyseavey/berit/internal/models"
)

// cleanupDuplicateLookups folds keyword_lookups rows that differ only in
// keyword case into one lower-cased row, e.g. rows inserted by hand.
// This runs BEFORE AutoMigrate to prevent constraint violations.
func cleanupDuplicateLookups(db *gorm.DB, log *zap.Logger) error {
	if !db.Migrator().HasTable("keyword_lookups") {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		// Sum hits into the lowest id of each (lower(keyword), outcome) group.
		result := tx.Exec(`
			UPDATE keyword_lookups
			SET hits = (
				SELECT SUM(k2.hits) FROM keyword_lookups k2
				WHERE LOWER(k2.keyword) = LOWER(keyword_lookups.keyword)
				AND k2.outcome = keyword_lookups.outcome
			),
			last_seen_at = (
				SELECT MAX(k2.last_seen_at) FROM keyword_lookups k2
				WHERE LOWER(k2.keyword) = LOWER(keyword_lookups.keyword)
				AND k2.outcome = keyword_lookups.outcome
			)
			WHERE id IN (
				SELECT MIN(id) FROM keyword_lookups
				GROUP BY LOWER(keyword), outcome
				HAVING COUNT(*) > 1
			)
		`)
		if result.Error != nil {
			return result.Error
		}

		result = tx.Exec(`
			DELETE FROM keyword_lookups
			WHERE id NOT IN (
				SELECT MIN(id) FROM keyword_lookups
				GROUP BY LOWER(keyword), outcome
			)
		`)
		if result.Error != nil {
			return result.Error
		}
		removed := result.RowsAffected

		// Only one row per group is left, so lower-casing cannot collide.
		if err := tx.Exec(`UPDATE keyword_lookups SET keyword = LOWER(keyword) WHERE keyword <> LOWER(keyword)`).Error; err != nil {
			return err
		}

		if removed > 0 {
			log.Info("Cleaned up duplicate keyword_lookups entries", zap.Int64("rows", removed))
		}
		return nil
	})
}

// PruneLookups deletes not-found lookups that have not been seen since before
// the cutoff. Misspelled searches otherwise accumulate forever.
func PruneLookups(db *gorm.DB, olderThan time.Duration, log *zap.Logger) error {
	cutoff := time.Now().Add(-olderThan)
	result := db.Where("outcome = ? AND last_seen_at < ?", models.OutcomeNotFound, cutoff).
		Delete(&models.KeywordLookup{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Info("Pruned stale not-found lookups",
			zap.Int64("rows", result.RowsAffected),
			zap.Time("cutoff", cutoff))
	}
	return nil
}
