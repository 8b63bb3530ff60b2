package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/berit/internal/cardindex"
	"github.com/codyseavey/berit/internal/models"
)

type CardHandler struct {
	index    *cardindex.Index
	matcher  *cardindex.Matcher
	selector *cardindex.Selector
}

func NewCardHandler(index *cardindex.Index, matcher *cardindex.Matcher, selector *cardindex.Selector) *CardHandler {
	return &CardHandler{
		index:    index,
		matcher:  matcher,
		selector: selector,
	}
}

func toResult(e cardindex.Entry) models.CardResult {
	return models.CardResult{
		Name:      e.Name,
		URI:       e.Card.URI,
		Commander: e.Card.Primary,
	}
}

// Resolve returns the card a [q] token would link.
func (h *CardHandler) Resolve(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	entry, ok := h.matcher.Resolve(query)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
		return
	}
	c.JSON(http.StatusOK, toResult(entry))
}

// Random draws a card. category is "any" (default), "commander" or "other".
func (h *CardHandler) Random(c *gin.Context) {
	var (
		entry cardindex.Entry
		err   error
	)

	switch c.DefaultQuery("category", "any") {
	case "any":
		entry, err = h.selector.DrawAny()
	case "commander":
		entry, err = h.selector.DrawByCategory(true)
	case "other":
		entry, err = h.selector.DrawByCategory(false)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "category must be 'any', 'commander' or 'other'"})
		return
	}

	if errors.Is(err, cardindex.ErrNoEligibleRecords) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toResult(entry))
}

// Status reports the size and age of the index.
func (h *CardHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"cards":      h.index.Len(),
		"commanders": h.index.PrimaryCount(),
		"other":      h.index.Len() - h.index.PrimaryCount(),
		"built_at":   h.index.BuiltAt().Format(time.RFC3339),
	})
}
