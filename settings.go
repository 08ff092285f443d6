package muffle

import (
	"context"
	"encoding/json"
)

// Storage keys read by the core. The core never writes KeyEnabled or
// KeyBlockedWords except to seed the default word list.
const (
	KeyEnabled      = "enabled"
	KeyBlockedWords = "blockedWords"
	KeyBlockStats   = "blockStats"
	KeySessionStats = "sessionStats"
)

// DefaultWords is the built-in word list used when storage has none or
// cannot be read.
var DefaultWords = []string{"trump", "musk", "elon", "rogan"}

// Settings is the user configuration consulted before every scan.
type Settings struct {
	Enabled bool
	Words   []string
}

// DefaultSettings returns enabled settings with the built-in word list.
func DefaultSettings() Settings {
	return Settings{
		Enabled: true,
		Words:   append([]string(nil), DefaultWords...),
	}
}

// Storage is an asynchronous key-value store. Values are JSON documents.
type Storage interface {
	// Get returns the values stored under keys. Missing keys are absent from
	// the result.
	Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)

	// Set stores every value in values.
	Set(ctx context.Context, values map[string]json.RawMessage) error
}
