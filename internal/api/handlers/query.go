package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/berit/internal/commands"
)

// TokenHandler turns query tokens into reply lines.
type TokenHandler interface {
	Handle(tokens []string) []string
}

type QueryHandler struct {
	dispatcher TokenHandler
}

func NewQueryHandler(dispatcher TokenHandler) *QueryHandler {
	return &QueryHandler{
		dispatcher: dispatcher,
	}
}

type queryRequest struct {
	Message string   `json:"message"`
	Tokens  []string `json:"tokens"`
}

// Query answers a chat message the same way the bot would. The body carries
// either the raw message text or pre-extracted tokens.
func (h *QueryHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var tokens []string
	switch {
	case len(req.Tokens) > 0:
		for _, t := range req.Tokens {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				tokens = append(tokens, t)
			}
		}
	case req.Message != "":
		tokens = commands.ExtractTokens(req.Message)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "either 'message' or 'tokens' is required"})
		return
	}

	lines := h.dispatcher.Handle(tokens)
	response, ok := commands.Format(lines)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lines":    lines,
		"response": response,
	})
}
