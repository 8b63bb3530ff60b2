// Package cardindex holds the in-memory card lookup index and the operations
// that read it: name resolution and random draws.
//
// An Index is built once from the dataset and never modified afterwards, so it
// can be shared between goroutines without locking.
package cardindex

import (
	"time"

	"github.com/codyseavey/berit/internal/models"
)

// IndexedCard is what the index keeps for each card.
type IndexedCard struct {
	Primary bool   `json:"commander"` // legendary creature, eligible as a commander
	URI     string `json:"uri"`
}

// Entry pairs an index key with its card.
type Entry struct {
	Name string
	Card IndexedCard
}

// Index maps normalized card names to cards. Iteration order puts every
// primary card before every other card; within each group the dataset order
// is kept.
type Index struct {
	entries []Entry
	byName  map[string]int
	primary int // entries[:primary] are the primary cards
	builtAt time.Time
}

// BuildStats summarizes what happened to the records fed to a Builder.
type BuildStats struct {
	Seen       int `json:"seen"`
	Malformed  int `json:"malformed"`
	Ineligible int `json:"ineligible"`
	Duplicates int `json:"duplicates"`
	Primary    int `json:"primary"`
	Other      int `json:"other"`
}

// Builder accumulates dataset records and produces an Index. It is not safe
// for concurrent use.
type Builder struct {
	filter  Filter
	pending []Entry
	byKey   map[string]int // key -> position in pending
	stats   BuildStats
}

// NewBuilder creates a builder that admits records matching filter.
func NewBuilder(filter Filter) *Builder {
	return &Builder{
		filter: filter,
		byKey:  make(map[string]int),
	}
}

// Add feeds one record to the builder. Malformed records are counted and
// skipped; the returned error says why.
func (b *Builder) Add(rec models.CardRecord) error {
	b.stats.Seen++

	if err := Validate(rec); err != nil {
		b.stats.Malformed++
		return err
	}
	if !b.filter.Eligible(rec) {
		b.stats.Ineligible++
		return nil
	}

	key := NormalizeName(rec.Name)
	card := IndexedCard{
		Primary: IsCommanderType(rec.TypeLine),
		URI:     rec.ScryfallURI,
	}
	if prev, ok := b.byKey[key]; ok {
		// Last record with a given name wins, at the first one's position.
		b.pending[prev].Card = card
		b.stats.Duplicates++
		return nil
	}
	b.byKey[key] = len(b.pending)
	b.pending = append(b.pending, Entry{Name: key, Card: card})
	return nil
}

// Malformed records a dataset element that could not be decoded at all.
func (b *Builder) Malformed() {
	b.stats.Seen++
	b.stats.Malformed++
}

// Stats returns the counters collected so far.
func (b *Builder) Stats() BuildStats {
	return b.stats
}

// Build partitions the admitted cards into primary and other, keeping dataset
// order inside each group, and returns the finished index.
func (b *Builder) Build() *Index {
	idx := &Index{
		entries: make([]Entry, 0, len(b.pending)),
		byName:  make(map[string]int, len(b.pending)),
		builtAt: time.Now(),
	}

	for _, e := range b.pending {
		if e.Card.Primary {
			idx.insert(e)
		}
	}
	idx.primary = len(idx.entries)
	for _, e := range b.pending {
		if !e.Card.Primary {
			idx.insert(e)
		}
	}

	b.stats.Primary = idx.primary
	b.stats.Other = len(idx.entries) - idx.primary
	return idx
}

func (idx *Index) insert(e Entry) {
	idx.byName[e.Name] = len(idx.entries)
	idx.entries = append(idx.entries, e)
}

// Build is a convenience wrapper that indexes a slice of records.
func Build(records []models.CardRecord, filter Filter) (*Index, BuildStats) {
	b := NewBuilder(filter)
	for _, rec := range records {
		_ = b.Add(rec)
	}
	idx := b.Build()
	return idx, b.Stats()
}

// Len returns the number of cards in the index.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// PrimaryCount returns the number of primary cards.
func (idx *Index) PrimaryCount() int {
	return idx.primary
}

// BuiltAt returns when the index was built.
func (idx *Index) BuiltAt() time.Time {
	return idx.builtAt
}

// Lookup returns the card stored under an already normalized key.
func (idx *Index) Lookup(key string) (IndexedCard, bool) {
	i, ok := idx.byName[key]
	if !ok {
		return IndexedCard{}, false
	}
	return idx.entries[i].Card, true
}

// Entries returns a copy of the index in iteration order.
func (idx *Index) Entries() []Entry {
	out := make([]Entry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// category returns the shared backing slice for one group. Callers must not
// modify it.
func (idx *Index) category(primary bool) []Entry {
	if primary {
		return idx.entries[:idx.primary]
	}
	return idx.entries[idx.primary:]
}
