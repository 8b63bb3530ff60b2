package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/codyseavey/berit/internal/cardindex"
	"github.com/codyseavey/berit/internal/models"
)

const sampleCards = `[
	{"object": "card", "lang": "en", "name": "Atraxa, Praetors' Voice", "type_line": "Legendary Creature — Phyrexian Angel Horror",
	 "legalities": {"commander": "legal"}, "scryfall_uri": "https://scryfall.com/card/2x2/190/atraxa-praetors-voice"},
	{"object": "card", "lang": "en", "name": "Sol Ring", "type_line": "Artifact",
	 "legalities": {"commander": "legal"}, "scryfall_uri": "https://scryfall.com/card/c21/263/sol-ring"},
	{"object": "card", "lang": "en", "name": "Broken", "type_line": "Artifact",
	 "legalities": "legal", "scryfall_uri": "https://scryfall.com/card/xxx/1/broken"},
	42,
	{"object": "card", "lang": "en", "name": "No Link", "type_line": "Instant",
	 "legalities": {"commander": "legal"}}
]`

// recordingSink collects what DecodeCards hands to it.
type recordingSink struct {
	added     []models.CardRecord
	malformed int
}

func (s *recordingSink) Add(rec models.CardRecord) error {
	if err := cardindex.Validate(rec); err != nil {
		s.malformed++
		return err
	}
	s.added = append(s.added, rec)
	return nil
}

func (s *recordingSink) Malformed() { s.malformed++ }

func newScryfallServer(t *testing.T, cards string) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bulk-data":
			assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
			json.NewEncoder(w).Encode(map[string]any{
				"object": "list",
				"data": []map[string]any{
					{"object": "bulk_data", "type": "unique_artwork", "name": "Unique Artwork", "download_uri": server.URL + "/unique.json"},
					{"object": "bulk_data", "type": "oracle_cards", "name": "Oracle Cards", "download_uri": server.URL + "/oracle.json", "size": len(cards)},
				},
			})
		case "/oracle.json":
			w.Write([]byte(cards))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDecodeCards_SkipsMalformed(t *testing.T) {
	sink := &recordingSink{}
	n, err := DecodeCards(strings.NewReader(sampleCards), sink, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 5, n)
	assert.Equal(t, 3, sink.malformed)
	require.Len(t, sink.added, 2)
	assert.Equal(t, "Atraxa, Praetors' Voice", sink.added[0].Name)
	assert.Equal(t, "Sol Ring", sink.added[1].Name)
	assert.Equal(t, "legal", sink.added[1].Legalities["commander"])
}

func TestDecodeCards_NotAnArray(t *testing.T) {
	_, err := DecodeCards(strings.NewReader(`{"object": "list"}`), &recordingSink{}, zap.NewNop())
	assert.Error(t, err)
}

func TestDecodeCards_Truncated(t *testing.T) {
	truncated := sampleCards[:len(sampleCards)/2]
	_, err := DecodeCards(strings.NewReader(truncated), &recordingSink{}, zap.NewNop())
	assert.Error(t, err)
}

func TestDecodeCards_Empty(t *testing.T) {
	sink := &recordingSink{}
	n, err := DecodeCards(strings.NewReader(`[]`), sink, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, sink.added)
}

func TestScryfallService_GetBulkData(t *testing.T) {
	server := newScryfallServer(t, sampleCards)
	svc := NewScryfallService(server.URL, nil)

	item, err := svc.GetBulkData(context.Background(), "oracle_cards")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/oracle.json", item.DownloadURI)

	byName, err := svc.GetBulkData(context.Background(), "oracle cards")
	require.NoError(t, err)
	assert.Equal(t, "oracle_cards", byName.Type)

	_, err = svc.GetBulkData(context.Background(), "all_cards")
	assert.Error(t, err)
}

func TestScryfallService_FetchCards(t *testing.T) {
	server := newScryfallServer(t, sampleCards)
	svc := NewScryfallService(server.URL+"/", zap.NewNop())

	sink := &recordingSink{}
	n, err := svc.FetchCards(context.Background(), "oracle_cards", sink)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Len(t, sink.added, 2)
}

func TestScryfallService_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := NewScryfallService(server.URL, nil)
	_, err := svc.GetBulkData(context.Background(), "oracle_cards")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestScryfallService_CancelledContext(t *testing.T) {
	server := newScryfallServer(t, sampleCards)
	svc := NewScryfallService(server.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.GetBulkData(ctx, "oracle_cards")
	assert.Error(t, err)
}

func TestLoadCardsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oracle-cards.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCards), 0o644))

	sink := &recordingSink{}
	n, err := LoadCardsFile(path, sink, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Len(t, sink.added, 2)

	_, err = LoadCardsFile(filepath.Join(t.TempDir(), "missing.json"), sink, zap.NewNop())
	assert.Error(t, err)
}
