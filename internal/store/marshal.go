package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/layerq/internal/repeat"
)

// marshalChoices converts vote choices to JSON TEXT for storage.
// HTML escaping is disabled so ids containing < or & store verbatim.
func marshalChoices(choices []repeat.Item) (string, error) {
	if len(choices) == 0 {
		return "[]", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(choices); err != nil {
		return "", fmt.Errorf("marshal choices: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalChoices parses JSON TEXT back to vote choices.
// Returns nil for a simple (non-vote) item.
func unmarshalChoices(data string) ([]repeat.Item, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var choices []repeat.Item
	if err := json.Unmarshal([]byte(data), &choices); err != nil {
		return nil, fmt.Errorf("unmarshal choices: %w", err)
	}
	return choices, nil
}
