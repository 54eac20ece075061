package stream

import (
	"encoding/json"
	"fmt"
)

// EncodeLine renders ev as one terminated event line, the inverse of
// Interpret for a single event.
func EncodeLine(ev Event) ([]byte, error) {
	var body any
	switch e := ev.(type) {
	case TokenEvent:
		body = map[string]string{"token": e.Text}
	case EnrichmentEvent:
		body = map[string]map[string]EnrichmentPatch{"enrichment": e.Entries}
	case ScoreEvent:
		body = map[string]ScoreDetails{"score_details": e.Details}
	case LearningEvent:
		body = map[string]json.RawMessage{"learning_triggered": e.Raw}
	case ErrorEvent:
		body = map[string]string{"error": e.Message}
	case DoneEvent:
		body = map[string]bool{"done": true}
	default:
		return nil, fmt.Errorf("encode event: unsupported type %T", ev)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", ev.Kind(), err)
	}
	line := make([]byte, 0, len(Prefix)+len(data)+1)
	line = append(line, Prefix...)
	line = append(line, data...)
	return append(line, '\n'), nil
}
