package models

import "time"

// Lookup outcome constants
const (
	OutcomeResolved    = "resolved"
	OutcomeNotFound    = "not_found"
	OutcomeRandom      = "random"
	OutcomeRandomEmpty = "random_empty"
	OutcomeHelp        = "help"
)

// KeywordLookup counts how often a query token produced a given outcome.
type KeywordLookup struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Keyword    string    `json:"keyword" gorm:"not null;uniqueIndex:idx_keyword_outcome"`
	Outcome    string    `json:"outcome" gorm:"not null;uniqueIndex:idx_keyword_outcome;index"`
	Hits       int64     `json:"hits" gorm:"not null;default:0"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// LookupStatsResponse is the API response for lookup statistics
type LookupStatsResponse struct {
	Lookups []KeywordLookup `json:"lookups"`
	Outcome string          `json:"outcome,omitempty"`
}
