package cardindex

import "math/rand/v2"

// Selector draws cards uniformly at random from an Index. Draws are
// independent, so the same card can come up twice in a row.
type Selector struct {
	index *Index
	intn  func(n int) int
}

// NewSelector creates a selector backed by the process-wide random source.
func NewSelector(index *Index) *Selector {
	return NewSelectorWithSource(index, rand.IntN)
}

// NewSelectorWithSource creates a selector using intn, which must return a
// value in [0, n). Tests use it to make draws deterministic.
func NewSelectorWithSource(index *Index, intn func(n int) int) *Selector {
	return &Selector{index: index, intn: intn}
}

// DrawAny returns a card drawn from the whole index.
func (s *Selector) DrawAny() (Entry, error) {
	return s.draw(s.index.entries)
}

// DrawByCategory returns a card drawn from the primary cards when primary is
// true, or from the remaining cards otherwise.
func (s *Selector) DrawByCategory(primary bool) (Entry, error) {
	return s.draw(s.index.category(primary))
}

func (s *Selector) draw(pool []Entry) (Entry, error) {
	if len(pool) == 0 {
		return Entry{}, ErrNoEligibleRecords
	}
	return pool[s.intn(len(pool))], nil
}
