// Package sentinel locates the diagnostic block embedded in streamed assistant
// text. The block is a JSON document bracketed by two identical markers:
//
//	Here are your options.$$DIAGNOSTIC_JSON${"score_confiance": 80, ...}$$DIAGNOSTIC_JSON$$
//
// Extraction must only run on fully accumulated text. Token boundaries fall
// anywhere, including inside the embedded JSON.
package sentinel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Marker delimits the embedded diagnostic on both sides.
const Marker = "$$DIAGNOSTIC_JSON$$"

// Result is the outcome of Extract. Payload is nil when no well-formed block
// was found.
type Result[T any] struct {
	CleanText string
	Payload   *T
	// Found reports whether a marker pair was present, independently of
	// whether its content parsed.
	Found bool
}

// Extract looks for the first marker pair in text and decodes the JSON
// between the markers into T.
//
// When the pair is present the marker region is always removed from the
// clean text, even if the payload is malformed, so raw braces never reach the
// transcript. Extract never panics on malformed input.
func Extract[T any](text string) Result[T] {
	start, end, ok := locate(text)
	if !ok {
		return Result[T]{CleanText: text}
	}

	raw := strings.TrimSpace(text[start+len(Marker) : end])
	clean := strings.TrimSpace(text[:start] + text[end+len(Marker):])

	payload, err := decode[T](raw)
	if err != nil {
		return Result[T]{CleanText: clean, Found: true}
	}
	return Result[T]{CleanText: clean, Payload: payload, Found: true}
}

// Wrap appends payload to text as a marker-delimited block.
func Wrap(text string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal sentinel payload: %w", err)
	}
	return text + Marker + string(data) + Marker, nil
}

func locate(text string) (int, int, bool) {
	start := strings.Index(text, Marker)
	if start < 0 {
		return 0, 0, false
	}
	rel := strings.Index(text[start+len(Marker):], Marker)
	if rel < 0 {
		return 0, 0, false
	}
	return start, start + len(Marker) + rel, true
}

func decode[T any](raw string) (*T, error) {
	data := []byte(raw)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, fmt.Errorf("empty sentinel payload")
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal sentinel payload: %w", err)
	}
	return &v, nil
}
