package cardindex

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/berit/internal/models"
)

func card(name, typeLine string) models.CardRecord {
	return models.CardRecord{
		Object:      KindCard,
		Lang:        LangEnglish,
		Legalities:  map[string]string{FormatCommander: LegalityLegal},
		TypeLine:    typeLine,
		Name:        name,
		ScryfallURI: "https://scryfall.com/card/" + name,
	}
}

func commander(name string) models.CardRecord {
	return card(name, "Legendary Creature — Human Wizard")
}

func instant(name string) models.CardRecord {
	return card(name, "Instant")
}

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestFilterEligible(t *testing.T) {
	f := DefaultFilter()

	token := instant("Goblin")
	token.Object = "token"

	japanese := instant("Shock")
	japanese.Lang = "ja"

	banned := instant("Mana Crypt")
	banned.Legalities = map[string]string{FormatCommander: "banned"}

	otherFormat := instant("Oko")
	otherFormat.Legalities = map[string]string{"standard": LegalityLegal}

	tests := []struct {
		name string
		rec  models.CardRecord
		want bool
	}{
		{name: "legal english card", rec: instant("Lightning Bolt"), want: true},
		{name: "wrong kind", rec: token, want: false},
		{name: "wrong language", rec: japanese, want: false},
		{name: "banned in format", rec: banned, want: false},
		{name: "format missing from legalities", rec: otherFormat, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Eligible(tt.rec))
		})
	}
}

func TestIsCommanderType(t *testing.T) {
	tests := []struct {
		typeLine string
		want     bool
	}{
		{"Legendary Creature — Elf Druid", true},
		{"Legendary Artifact Creature — Golem", true},
		{"Legendary Enchantment Creature — God", true},
		{"Legendary Creature — Human // Legendary Planeswalker — Jace", true},
		{"Creature — Goblin", false},
		{"Legendary Planeswalker — Jace", false},
		{"Legendary Enchantment", false},
		{"Artifact Creature — Legendary Golem", false},
		{"Instant", false},
	}

	for _, tt := range tests {
		t.Run(tt.typeLine, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCommanderType(tt.typeLine))
		})
	}
}

func TestValidate(t *testing.T) {
	noName := instant("x")
	noName.Name = ""

	noURI := instant("Shock")
	noURI.ScryfallURI = ""

	noType := instant("Shock")
	noType.TypeLine = ""

	noLegalities := instant("Shock")
	noLegalities.Legalities = nil

	for _, rec := range []models.CardRecord{noName, noURI, noType, noLegalities} {
		err := Validate(rec)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedRecord))
	}
	assert.NoError(t, Validate(instant("Shock")))
}

func TestBuild_PrimaryCardsFirstInDatasetOrder(t *testing.T) {
	records := []models.CardRecord{
		instant("Shock"),
		commander("Atraxa"),
		instant("Lightning Bolt"),
		commander("Krenko"),
		instant("Opt"),
	}

	idx, stats := Build(records, DefaultFilter())

	assert.Equal(t, []string{"atraxa", "krenko", "shock", "lightning bolt", "opt"}, names(idx.Entries()))
	assert.Equal(t, 2, idx.PrimaryCount())
	assert.Equal(t, 5, idx.Len())
	assert.Equal(t, 2, stats.Primary)
	assert.Equal(t, 3, stats.Other)
	assert.False(t, idx.BuiltAt().IsZero())
}

func TestBuild_SkipsIneligibleAndMalformed(t *testing.T) {
	broken := instant("Broken")
	broken.ScryfallURI = ""

	spanish := commander("Zur")
	spanish.Lang = "es"

	idx, stats := Build([]models.CardRecord{broken, spanish, instant("Shock")}, DefaultFilter())

	assert.Equal(t, []string{"shock"}, names(idx.Entries()))
	assert.Equal(t, 3, stats.Seen)
	assert.Equal(t, 1, stats.Malformed)
	assert.Equal(t, 1, stats.Ineligible)
}

func TestBuild_DuplicateNamesLastWriteWins(t *testing.T) {
	first := instant("Shock")
	first.ScryfallURI = "https://scryfall.com/card/first"
	second := card("SHOCK", "Instant")
	second.ScryfallURI = "https://scryfall.com/card/second"

	idx, stats := Build([]models.CardRecord{first, instant("Opt"), second}, DefaultFilter())

	got, ok := idx.Lookup("shock")
	require.True(t, ok)
	assert.Equal(t, "https://scryfall.com/card/second", got.URI)
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 1, stats.Duplicates)
	// The name keeps the position of its first record.
	assert.Equal(t, []string{"shock", "opt"}, names(idx.Entries()))
}

func TestBuild_DuplicateMovesBetweenCategories(t *testing.T) {
	// A later non-commander printing replaces an earlier commander one, so the
	// commanders-first ordering must still hold.
	idx, _ := Build([]models.CardRecord{commander("Shapeshifter"), instant("Opt"), instant("Shapeshifter")}, DefaultFilter())

	assert.Equal(t, 0, idx.PrimaryCount())
	got, ok := idx.Lookup("shapeshifter")
	require.True(t, ok)
	assert.False(t, got.Primary)
	assert.Equal(t, []string{"shapeshifter", "opt"}, names(idx.Entries()))
}

func TestBuild_DuplicateJoinsPrimaryAtFirstPosition(t *testing.T) {
	idx, _ := Build([]models.CardRecord{
		instant("Zur"),
		commander("Krenko"),
		instant("Opt"),
		commander("Zur"),
	}, DefaultFilter())

	assert.Equal(t, 2, idx.PrimaryCount())
	assert.Equal(t, []string{"zur", "krenko", "opt"}, names(idx.Entries()))
}

func TestBuilder_MalformedDecodeCounted(t *testing.T) {
	b := NewBuilder(DefaultFilter())
	b.Malformed()
	require.NoError(t, b.Add(instant("Opt")))
	idx := b.Build()

	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, BuildStats{Seen: 2, Malformed: 1, Other: 1}, b.Stats())
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lower cases", input: "Lightning BOLT", want: "lightning bolt"},
		{name: "folds curly apostrophe", input: "Urza’s Saga", want: "urza's saga"},
		{name: "folds left quote", input: "Urza‘s Saga", want: "urza's saga"},
		{name: "composes accents", input: "Lim-Du\u0302l's Vault", want: "lim-d\u00fbl's vault"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.input))
		})
	}
}
