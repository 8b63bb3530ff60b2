package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/codyseavey/berit/internal/metrics"
	"github.com/codyseavey/berit/internal/models"
)

const (
	scryfallBaseURL = "https://api.scryfall.com"
	userAgent       = "berit/1.0"

	// Scryfall asks clients to stay under 10 requests per second.
	scryfallRequestsPerSecond = 10
)

// CardSink receives decoded dataset records. Malformed is called for elements
// that are not valid card objects.
type CardSink interface {
	Add(rec models.CardRecord) error
	Malformed()
}

type ScryfallService struct {
	client         *http.Client
	downloadClient *http.Client
	baseURL        string
	limiter        *rate.Limiter
	logger         *zap.Logger
}

type bulkDataResponse struct {
	Object string                `json:"object"`
	Data   []models.BulkDataItem `json:"data"`
}

func NewScryfallService(baseURL string, logger *zap.Logger) *ScryfallService {
	if baseURL == "" {
		baseURL = scryfallBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScryfallService{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		// The bulk file is well over 100MB, so it gets a much longer budget.
		downloadClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(rate.Limit(scryfallRequestsPerSecond), 1),
		logger:  logger,
	}
}

// GetBulkData finds the bulk dataset of the given type ("oracle_cards").
// The display name ("Oracle Cards") is accepted as well.
func (s *ScryfallService) GetBulkData(ctx context.Context, bulkType string) (*models.BulkDataItem, error) {
	reqURL := fmt.Sprintf("%s/bulk-data", s.baseURL)

	resp, err := s.get(ctx, s.client, reqURL, "bulk_data")
	if err != nil {
		return nil, fmt.Errorf("failed to get bulk data metadata: %w", err)
	}
	defer resp.Body.Close()

	var bulk bulkDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&bulk); err != nil {
		return nil, fmt.Errorf("failed to decode bulk data metadata: %w", err)
	}

	for i := range bulk.Data {
		item := bulk.Data[i]
		if item.Type == bulkType || strings.EqualFold(item.Name, bulkType) {
			if item.DownloadURI == "" {
				return nil, fmt.Errorf("bulk data %q has no download uri", bulkType)
			}
			return &item, nil
		}
	}
	return nil, fmt.Errorf("bulk data %q not found among %d datasets", bulkType, len(bulk.Data))
}

// StreamCards downloads a bulk card array and feeds it to sink one element at
// a time, so the whole file is never held in memory.
func (s *ScryfallService) StreamCards(ctx context.Context, downloadURI string, sink CardSink) (int, error) {
	resp, err := s.get(ctx, s.downloadClient, downloadURI, "bulk_download")
	if err != nil {
		return 0, fmt.Errorf("failed to download cards: %w", err)
	}
	defer resp.Body.Close()

	return DecodeCards(resp.Body, sink, s.logger)
}

// FetchCards resolves the bulk dataset of bulkType and streams it into sink.
func (s *ScryfallService) FetchCards(ctx context.Context, bulkType string, sink CardSink) (int, error) {
	item, err := s.GetBulkData(ctx, bulkType)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Downloading bulk card data",
		zap.String("type", item.Type),
		zap.String("updated_at", item.UpdatedAt),
		zap.Int64("size", item.Size))
	return s.StreamCards(ctx, item.DownloadURI, sink)
}

func (s *ScryfallService) get(ctx context.Context, client *http.Client, reqURL, endpoint string) (*http.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		metrics.ScryfallRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		metrics.ScryfallRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("scryfall API returned status %d", resp.StatusCode)
	}
	metrics.ScryfallRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	return resp, nil
}

// DecodeCards reads a JSON array of card objects from r. Elements whose
// fields have the wrong JSON type are reported to sink as malformed and
// skipped; any other decode error aborts.
func DecodeCards(r io.Reader, sink CardSink, logger *zap.Logger) (int, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return 0, fmt.Errorf("failed to read card array: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return 0, fmt.Errorf("expected card array, got %v", tok)
	}

	count := 0
	for dec.More() {
		var rec models.CardRecord
		if err := dec.Decode(&rec); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				logger.Warn("Skipping undecodable card record", zap.Int("position", count), zap.Error(err))
				sink.Malformed()
				count++
				continue
			}
			return count, fmt.Errorf("failed to decode card %d: %w", count, err)
		}
		if err := sink.Add(rec); err != nil {
			logger.Warn("Skipping malformed card record", zap.Int("position", count), zap.Error(err))
		}
		count++
	}

	if _, err := dec.Token(); err != nil {
		return count, fmt.Errorf("failed to read end of card array: %w", err)
	}
	return count, nil
}

// LoadCardsFile decodes a bulk card array saved on disk.
func LoadCardsFile(path string, sink CardSink, logger *zap.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer f.Close()

	return DecodeCards(f, sink, logger)
}
