package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codyseavey/berit/internal/models"
)

// Initialize opens the SQLite database at dbPath and brings the schema up to
// date.
func Initialize(dbPath string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	log.Info("Database connected successfully", zap.String("path", dbPath))

	if err := cleanupDuplicateLookups(db, log); err != nil {
		return nil, fmt.Errorf("failed to clean up duplicate lookups: %w", err)
	}

	// Auto-migrate the schema
	if err := db.AutoMigrate(&models.KeywordLookup{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("Database migration completed")
	return db, nil
}
