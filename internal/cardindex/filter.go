package cardindex

import (
	"errors"
	"fmt"
	"strings"

	"github.com/codyseavey/berit/internal/models"
)

const (
	KindCard        = "card"
	LangEnglish     = "en"
	FormatCommander = "commander"
	LegalityLegal   = "legal"
)

var (
	// ErrMalformedRecord is returned when a dataset record lacks a field the
	// indexer needs.
	ErrMalformedRecord = errors.New("malformed card record")

	// ErrNoEligibleRecords is returned when a random draw has nothing to draw from.
	ErrNoEligibleRecords = errors.New("no eligible records")
)

// Filter decides which dataset records make it into the index.
type Filter struct {
	Kind   string
	Lang   string
	Format string
}

// DefaultFilter admits English, Commander-legal single cards.
func DefaultFilter() Filter {
	return Filter{
		Kind:   KindCard,
		Lang:   LangEnglish,
		Format: FormatCommander,
	}
}

// Eligible reports whether the record has the expected kind and language and
// is legal in the filter's format.
func (f Filter) Eligible(rec models.CardRecord) bool {
	if rec.Object != f.Kind {
		return false
	}
	if rec.Lang != f.Lang {
		return false
	}
	return rec.Legalities[f.Format] == LegalityLegal
}

// Validate checks that every field read during indexing is present.
func Validate(rec models.CardRecord) error {
	switch {
	case rec.Name == "":
		return fmt.Errorf("%w: missing name", ErrMalformedRecord)
	case rec.ScryfallURI == "":
		return fmt.Errorf("%w: missing scryfall_uri for %q", ErrMalformedRecord, rec.Name)
	case rec.TypeLine == "":
		return fmt.Errorf("%w: missing type_line for %q", ErrMalformedRecord, rec.Name)
	case rec.Legalities == nil:
		return fmt.Errorf("%w: missing legalities for %q", ErrMalformedRecord, rec.Name)
	}
	return nil
}

// IsCommanderType reports whether a type line designates a legendary creature,
// e.g. "Legendary Creature — Elf Druid" or "Legendary Artifact Creature — Golem".
func IsCommanderType(typeLine string) bool {
	rest, ok := strings.CutPrefix(typeLine, "Legendary")
	if !ok {
		return false
	}
	return strings.Contains(rest, "Creature")
}
