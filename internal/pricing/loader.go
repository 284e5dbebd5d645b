package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// Loader reads a pricing rules document from a backing store. The document
// is a small JSON object; loading happens once at startup.
type Loader interface {
	// Load reads and validates the rules document.
	Load(ctx context.Context) (*Rules, error)
}

// fileLoader implements Loader for a local JSON rules file.
type fileLoader struct {
	path   string
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based rules loader.
func NewFileLoader(path string, logger zerolog.Logger) Loader {
	return &fileLoader{
		path:   path,
		logger: logger.With().Str("component", "rules-loader").Logger(),
	}
}

// Load reads the rules file and returns the parsed rules.
func (l *fileLoader) Load(ctx context.Context) (*Rules, error) {
	l.logger.Info().Str("file", l.path).Msg("loading pricing rules file")

	data, err := os.ReadFile(l.path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", l.path).Msg("failed to read rules file")
		return nil, fmt.Errorf("failed to read rules file %s: %w", l.path, err)
	}

	rules, err := parseRules(data)
	if err != nil {
		l.logger.Error().Err(err).Str("file", l.path).Msg("invalid rules file")
		return nil, fmt.Errorf("invalid rules file %s: %w", l.path, err)
	}

	l.logger.Info().
		Str("file", l.path).
		Str("currency", rules.Currency).
		Msg("pricing rules loaded successfully")

	return rules, nil
}

// parseRules decodes and validates a rules document.
func parseRules(data []byte) (*Rules, error) {
	var rules Rules
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode rules: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &rules, nil
}
