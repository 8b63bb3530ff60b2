// Package commands turns the bracketed tokens of a chat message into reply
// lines.
package commands

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/codyseavey/berit/internal/cardindex"
	"github.com/codyseavey/berit/internal/metrics"
	"github.com/codyseavey/berit/internal/models"
)

// Resolver finds the best card for a search pattern.
type Resolver interface {
	Resolve(pattern string) (cardindex.Entry, bool)
}

// Drawer picks random cards.
type Drawer interface {
	DrawAny() (cardindex.Entry, error)
	DrawByCategory(primary bool) (cardindex.Entry, error)
}

// Recorder receives the outcome of every token. Implementations must not block.
type Recorder interface {
	Record(keyword, outcome string)
}

// Keywords are the reserved tokens that are not card searches.
type Keywords struct {
	Help            string `yaml:"help"`
	Random          string `yaml:"random"`
	RandomCommander string `yaml:"random_commander"`
}

// DefaultKeywords returns the stock command set.
func DefaultKeywords() Keywords {
	return Keywords{
		Help:            "!help",
		Random:          "!random",
		RandomCommander: "!random_commander",
	}
}

type nopRecorder struct{}

func (nopRecorder) Record(string, string) {}

// Dispatcher routes tokens to the matcher, the random selector or the help text.
type Dispatcher struct {
	resolver Resolver
	drawer   Drawer
	keywords Keywords
	helpText string
	recorder Recorder
	logger   *zap.Logger
}

// NewDispatcher wires a dispatcher. A nil recorder or logger is replaced with
// a no-op.
func NewDispatcher(resolver Resolver, drawer Drawer, keywords Keywords, recorder Recorder, logger *zap.Logger) *Dispatcher {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	keywords = Keywords{
		Help:            strings.ToLower(keywords.Help),
		Random:          strings.ToLower(keywords.Random),
		RandomCommander: strings.ToLower(keywords.RandomCommander),
	}
	return &Dispatcher{
		resolver: resolver,
		drawer:   drawer,
		keywords: keywords,
		helpText: HelpText(keywords),
		recorder: recorder,
		logger:   logger,
	}
}

// Handle answers one message's tokens. A help token anywhere in the batch
// yields only the help text. Otherwise each token produces at most one line,
// in token order; tokens that find nothing are dropped.
func (d *Dispatcher) Handle(tokens []string) []string {
	for _, token := range tokens {
		if d.keywords.Help != "" && strings.EqualFold(token, d.keywords.Help) {
			d.record(token, models.OutcomeHelp)
			return []string{d.helpText}
		}
	}

	lines := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if line, ok := d.handleToken(token); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func (d *Dispatcher) handleToken(token string) (string, bool) {
	switch {
	case d.keywords.Random != "" && strings.EqualFold(token, d.keywords.Random):
		return d.draw(token, d.drawer.DrawAny)
	case d.keywords.RandomCommander != "" && strings.EqualFold(token, d.keywords.RandomCommander):
		return d.draw(token, func() (cardindex.Entry, error) {
			return d.drawer.DrawByCategory(true)
		})
	}

	entry, ok := d.resolver.Resolve(token)
	if !ok {
		d.logger.Debug("No card found matching pattern", zap.String("pattern", token))
		d.record(token, models.OutcomeNotFound)
		return "", false
	}
	d.logger.Info("Returning card matching pattern",
		zap.String("pattern", token),
		zap.String("card", entry.Name),
		zap.String("uri", entry.Card.URI))
	d.record(token, models.OutcomeResolved)
	return entry.Card.URI, true
}

func (d *Dispatcher) draw(token string, fn func() (cardindex.Entry, error)) (string, bool) {
	entry, err := fn()
	if err != nil {
		if !errors.Is(err, cardindex.ErrNoEligibleRecords) {
			d.logger.Warn("Random draw failed", zap.String("command", token), zap.Error(err))
		}
		d.record(token, models.OutcomeRandomEmpty)
		return "", false
	}
	d.logger.Info("Returning random card",
		zap.String("command", token),
		zap.String("card", entry.Name))
	d.record(token, models.OutcomeRandom)
	return entry.Card.URI, true
}

func (d *Dispatcher) record(token, outcome string) {
	metrics.TokensTotal.WithLabelValues(outcome).Inc()
	d.recorder.Record(token, outcome)
}
