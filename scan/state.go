package scan

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/fwojciec/muffle"
)

// State holds the in-memory copy of the user settings consulted before every
// pass. It starts with the built-in defaults and falls back to the last known
// settings whenever storage cannot be read.
// State is safe for concurrent use by multiple goroutines.
type State struct {
	storage muffle.Storage
	logger  *slog.Logger

	mu       sync.RWMutex
	settings muffle.Settings
}

// NewState returns a State backed by storage. A nil logger discards output.
func NewState(storage muffle.Storage, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &State{
		storage:  storage,
		logger:   logger,
		settings: muffle.DefaultSettings(),
	}
}

// Settings returns a copy of the current settings.
func (s *State) Settings() muffle.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySettings(s.settings)
}

// Set replaces the current settings.
func (s *State) Set(settings muffle.Settings) {
	settings = copySettings(settings)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// SetEnabled replaces the enabled flag only.
func (s *State) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Enabled = enabled
}

// Load reads the enabled flag and word list from storage and returns the
// resulting settings. A missing flag means enabled and a missing word list
// means the defaults. Load never writes to storage. Storage errors are logged
// and the last known settings are kept.
func (s *State) Load(ctx context.Context) muffle.Settings {
	values, err := s.storage.Get(ctx, muffle.KeyEnabled, muffle.KeyBlockedWords)
	if err != nil {
		s.logger.Warn("settings read failed, keeping last known settings", "err", err)
		return s.Settings()
	}

	settings := muffle.Settings{Enabled: true}
	if raw, ok := values[muffle.KeyEnabled]; ok {
		if err := json.Unmarshal(raw, &settings.Enabled); err != nil {
			s.logger.Warn("invalid enabled flag", "err", err)
			settings.Enabled = true
		}
	}

	words, ok := decodeWords(values[muffle.KeyBlockedWords])
	if !ok {
		words = slices.Clone(muffle.DefaultWords)
	}
	settings.Words = words

	s.Set(settings)
	return copySettings(settings)
}

// decodeWords parses a stored word list. It reports false when nothing
// usable is stored.
func decodeWords(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var words []string
	if err := json.Unmarshal(raw, &words); err != nil || words == nil {
		return nil, false
	}
	return NormalizeWords(words), true
}

// NormalizeWords lowercases and trims words and drops empty entries. Order
// is preserved.
func NormalizeWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func copySettings(s muffle.Settings) muffle.Settings {
	return muffle.Settings{Enabled: s.Enabled, Words: slices.Clone(s.Words)}
}
