package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/berit/internal/models"
)

// LookupReader reads aggregated lookup counts.
type LookupReader interface {
	Top(outcome string, limit int) ([]models.KeywordLookup, error)
}

type StatsHandler struct {
	stats LookupReader
}

func NewStatsHandler(stats LookupReader) *StatsHandler {
	return &StatsHandler{
		stats: stats,
	}
}

var validOutcomes = map[string]bool{
	"":                        true,
	models.OutcomeResolved:    true,
	models.OutcomeNotFound:    true,
	models.OutcomeRandom:      true,
	models.OutcomeRandomEmpty: true,
	models.OutcomeHelp:        true,
}

// GetLookups returns the most frequent lookups, e.g. ?outcome=not_found to
// see what people search for and never find.
func (h *StatsHandler) GetLookups(c *gin.Context) {
	outcome := c.Query("outcome")
	if !validOutcomes[outcome] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown outcome"})
		return
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	lookups, err := h.stats.Top(outcome, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.LookupStatsResponse{
		Lookups: lookups,
		Outcome: outcome,
	})
}
