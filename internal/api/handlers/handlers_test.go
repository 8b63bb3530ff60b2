package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/berit/internal/cardindex"
	"github.com/codyseavey/berit/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func record(name, typeLine string) models.CardRecord {
	return models.CardRecord{
		Object:      cardindex.KindCard,
		Lang:        cardindex.LangEnglish,
		Legalities:  map[string]string{cardindex.FormatCommander: cardindex.LegalityLegal},
		TypeLine:    typeLine,
		Name:        name,
		ScryfallURI: "https://scryfall.com/card/" + strings.ReplaceAll(strings.ToLower(name), " ", "-"),
	}
}

func newCardHandler(t *testing.T, records ...models.CardRecord) *CardHandler {
	t.Helper()
	index, _ := cardindex.Build(records, cardindex.DefaultFilter())
	matcher, err := cardindex.NewMatcher(index, 16)
	require.NoError(t, err)
	return NewCardHandler(index, matcher, cardindex.NewSelector(index))
}

func serve(method, target, body string, register func(r *gin.Engine)) *httptest.ResponseRecorder {
	router := gin.New()
	register(router)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// stubTokens answers each token with its upper-cased form, except "miss".
type stubTokens struct {
	got []string
}

func (s *stubTokens) Handle(tokens []string) []string {
	s.got = tokens
	var lines []string
	for _, t := range tokens {
		if t != "miss" {
			lines = append(lines, strings.ToUpper(t))
		}
	}
	return lines
}

func TestQueryHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantTokens []string
	}{
		{name: "message", body: `{"message": "play [Sol Ring] turn one"}`, wantStatus: http.StatusOK, wantTokens: []string{"sol ring"}},
		{name: "tokens", body: `{"tokens": [" Atraxa ", ""]}`, wantStatus: http.StatusOK, wantTokens: []string{"atraxa"}},
		{name: "nothing resolves", body: `{"message": "[miss]"}`, wantStatus: http.StatusNoContent, wantTokens: []string{"miss"}},
		{name: "no tokens in message", body: `{"message": "hello"}`, wantStatus: http.StatusNoContent, wantTokens: []string{}},
		{name: "empty body", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "invalid json", body: `{`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubTokens{}
			h := NewQueryHandler(stub)
			w := serve("POST", "/api/query", tt.body, func(r *gin.Engine) {
				r.POST("/api/query", h.Query)
			})

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantTokens != nil {
				assert.ElementsMatch(t, tt.wantTokens, stub.got)
			}
		})
	}
}

func TestQueryHandler_Response(t *testing.T) {
	h := NewQueryHandler(&stubTokens{})
	w := serve("POST", "/api/query", `{"message": "[a] [miss] [b]"}`, func(r *gin.Engine) {
		r.POST("/api/query", h.Query)
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Lines    []string `json:"lines"`
		Response string   `json:"response"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"A", "B"}, resp.Lines)
	assert.Equal(t, "A\nB", resp.Response)
}

func TestCardHandler_Resolve(t *testing.T) {
	h := newCardHandler(t,
		record("Sol Ring", "Artifact"),
		record("Atraxa, Praetors' Voice", "Legendary Creature — Phyrexian Angel Horror"),
	)
	register := func(r *gin.Engine) { r.GET("/api/cards/resolve", h.Resolve) }

	w := serve("GET", "/api/cards/resolve?q=atraxa", "", register)
	require.Equal(t, http.StatusOK, w.Code)

	var result models.CardResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "atraxa, praetors' voice", result.Name)
	assert.True(t, result.Commander)

	w = serve("GET", "/api/cards/resolve?q=black+lotus", "", register)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve("GET", "/api/cards/resolve?q=++", "", register)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCardHandler_Random(t *testing.T) {
	h := newCardHandler(t,
		record("Sol Ring", "Artifact"),
		record("Arcane Signet", "Artifact"),
	)
	register := func(r *gin.Engine) { r.GET("/api/cards/random", h.Random) }

	tests := []struct {
		query      string
		wantStatus int
	}{
		{query: "", wantStatus: http.StatusOK},
		{query: "?category=any", wantStatus: http.StatusOK},
		{query: "?category=other", wantStatus: http.StatusOK},
		{query: "?category=commander", wantStatus: http.StatusNotFound},
		{query: "?category=planeswalker", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := serve("GET", "/api/cards/random"+tt.query, "", register)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestCardHandler_Status(t *testing.T) {
	h := newCardHandler(t,
		record("Sol Ring", "Artifact"),
		record("Krenko, Mob Boss", "Legendary Creature — Goblin Warrior"),
		record("Lightning Bolt", "Instant"),
	)
	w := serve("GET", "/api/index/status", "", func(r *gin.Engine) {
		r.GET("/api/index/status", h.Status)
	})
	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.EqualValues(t, 3, status["cards"])
	assert.EqualValues(t, 1, status["commanders"])
	assert.EqualValues(t, 2, status["other"])
	assert.NotEmpty(t, status["built_at"])
}

type stubLookups struct {
	outcome string
	limit   int
	err     error
}

func (s *stubLookups) Top(outcome string, limit int) ([]models.KeywordLookup, error) {
	s.outcome, s.limit = outcome, limit
	if s.err != nil {
		return nil, s.err
	}
	return []models.KeywordLookup{{Keyword: "sol rnig", Outcome: models.OutcomeNotFound, Hits: 3}}, nil
}

func TestStatsHandler_GetLookups(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		err         error
		wantStatus  int
		wantOutcome string
		wantLimit   int
	}{
		{name: "defaults", query: "", wantStatus: http.StatusOK, wantLimit: 50},
		{name: "filtered", query: "?outcome=not_found&limit=5", wantStatus: http.StatusOK, wantOutcome: "not_found", wantLimit: 5},
		{name: "unknown outcome", query: "?outcome=maybe", wantStatus: http.StatusBadRequest},
		{name: "bad limit", query: "?limit=-1", wantStatus: http.StatusBadRequest},
		{name: "store error", query: "", err: errors.New("disk I/O error"), wantStatus: http.StatusInternalServerError, wantLimit: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubLookups{err: tt.err}
			h := NewStatsHandler(stub)
			w := serve("GET", "/api/stats/lookups"+tt.query, "", func(r *gin.Engine) {
				r.GET("/api/stats/lookups", h.GetLookups)
			})

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusBadRequest {
				return
			}
			assert.Equal(t, tt.wantOutcome, stub.outcome)
			assert.Equal(t, tt.wantLimit, stub.limit)
		})
	}
}
