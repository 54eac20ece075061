// Package stream consumes the diagnostic event stream: a line-oriented body
// where each meaningful line is "data: " followed by one JSON object.
package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Prefix marks an event line.
const Prefix = "data: "

var (
	ErrNotEventLine      = errors.New("not an event line")
	ErrMalformedEvent    = errors.New("malformed event")
	ErrUnrecognizedEvent = errors.New("unrecognized event")
)

// Kind tags an Event variant.
type Kind int

const (
	KindToken Kind = iota
	KindEnrichment
	KindScore
	KindLearning
	KindError
	KindDone
)

func (k Kind) String() string {
	switch k {
	case KindToken:
		return "token"
	case KindEnrichment:
		return "enrichment"
	case KindScore:
		return "score_details"
	case KindLearning:
		return "learning_triggered"
	case KindError:
		return "error"
	case KindDone:
		return "done"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is one of TokenEvent, EnrichmentEvent, ScoreEvent, LearningEvent,
// ErrorEvent or DoneEvent.
type Event interface {
	Kind() Kind
}

type TokenEvent struct {
	Text string
}

// EnrichmentPatch is a partial badge update for one recommendation. A nil
// field is absent from the update.
type EnrichmentPatch struct {
	HasFiche *bool    `json:"has_fiche,omitempty"`
	TRS      *float64 `json:"trs,omitempty"`
	Learning *bool    `json:"learning,omitempty"`
}

type EnrichmentEvent struct {
	Entries map[string]EnrichmentPatch
}

type ScoreDetails struct {
	Total      float64 `json:"total"`
	Scientific float64 `json:"scientific"`
	Personal   float64 `json:"personal"`
}

type ScoreEvent struct {
	Details ScoreDetails
}

// LearningEvent carries the learning_triggered payload untouched.
type LearningEvent struct {
	Raw json.RawMessage
}

// ErrorEvent is a generation failure reported in-band by the backend.
type ErrorEvent struct {
	Message string
}

type DoneEvent struct{}

func (TokenEvent) Kind() Kind      { return KindToken }
func (EnrichmentEvent) Kind() Kind { return KindEnrichment }
func (ScoreEvent) Kind() Kind      { return KindScore }
func (LearningEvent) Kind() Kind   { return KindLearning }
func (ErrorEvent) Kind() Kind      { return KindError }
func (DoneEvent) Kind() Kind       { return KindDone }

// Interpret parses one complete line.
//
// Events come back in a fixed order: token, enrichment, score, learning,
// error, done. A line may yield several. A recognized field holding the wrong
// JSON type rejects the whole line with ErrMalformedEvent; an object with no
// recognized field yields ErrUnrecognizedEvent. A JSON null counts as absent.
func Interpret(line string) ([]Event, error) {
	if !strings.HasPrefix(line, Prefix) {
		return nil, ErrNotEventLine
	}
	body := strings.TrimSpace(line[len(Prefix):])

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedEvent)
	}

	var (
		events     []Event
		recognized bool
	)

	if raw, ok := present(fields, "token"); ok {
		recognized = true
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, fieldError("token", err)
		}
		events = append(events, TokenEvent{Text: text})
	}

	if raw, ok := present(fields, "enrichment"); ok {
		recognized = true
		var entries map[string]EnrichmentPatch
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fieldError("enrichment", err)
		}
		events = append(events, EnrichmentEvent{Entries: entries})
	}

	if raw, ok := present(fields, "score_details"); ok {
		recognized = true
		var details ScoreDetails
		if err := json.Unmarshal(raw, &details); err != nil {
			return nil, fieldError("score_details", err)
		}
		events = append(events, ScoreEvent{Details: details})
	}

	if raw, ok := present(fields, "learning_triggered"); ok {
		recognized = true
		events = append(events, LearningEvent{Raw: append(json.RawMessage(nil), raw...)})
	}

	if raw, ok := present(fields, "error"); ok {
		recognized = true
		var msg string
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fieldError("error", err)
		}
		events = append(events, ErrorEvent{Message: msg})
	}

	if raw, ok := present(fields, "done"); ok {
		recognized = true
		var done bool
		if err := json.Unmarshal(raw, &done); err != nil {
			return nil, fieldError("done", err)
		}
		if done {
			events = append(events, DoneEvent{})
		}
	}

	if !recognized {
		return nil, ErrUnrecognizedEvent
	}
	return events, nil
}

func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func fieldError(field string, err error) error {
	return fmt.Errorf("%w: field %q: %v", ErrMalformedEvent, field, err)
}
