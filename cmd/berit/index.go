package main

import (
	"context"

	"github.com/codyseavey/berit/internal/cardindex"
	"github.com/codyseavey/berit/internal/config"
	"github.com/codyseavey/berit/internal/services"
)

// loadIndex builds the card index from the configured dataset file, or from
// Scryfall when no file is set.
func loadIndex(ctx context.Context, cfg *config.Config) (*cardindex.Index, error) {
	filter := cardindex.Filter{
		Kind:   cardindex.KindCard,
		Lang:   cfg.Index.Language,
		Format: cfg.Index.Format,
	}
	scryfall := services.NewScryfallService(cfg.Scryfall.BaseURL, logger)
	loader := services.NewIndexLoader(scryfall, filter, cfg.Scryfall.BulkType, logger)

	if cfg.Scryfall.DatasetFile != "" {
		return loader.LoadFile(cfg.Scryfall.DatasetFile)
	}
	return loader.Load(ctx, cfg.Scryfall.FetchRetries, cfg.Scryfall.RetryBackoff)
}
