package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	defaultChunkSize = 4 * 1024
	maxDrainBytes    = 1 << 20
)

// Handler receives interpreted events in arrival order. Calls happen on the
// goroutine running Session.Run.
type Handler interface {
	OnToken(text string)
	OnEnrichment(entries map[string]EnrichmentPatch)
	OnScore(details ScoreDetails)
	OnLearningTriggered(raw json.RawMessage)
	OnServerError(message string)
}

// DropFunc observes lines that were skipped because they could not be
// interpreted.
type DropFunc func(line string, err error)

type Option func(*Session)

// WithChunkSize sets the read buffer size.
func WithChunkSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithDropFunc registers an observer for dropped lines.
func WithDropFunc(fn DropFunc) Option {
	return func(s *Session) {
		s.onDrop = fn
	}
}

// Session is the ingestion state of one response body: the framer's
// carry-over, the accumulated token text and the closed flag. It is owned by
// the caller of Run and must not be reused for another body.
type Session struct {
	framer    LineFramer
	full      strings.Builder
	closed    bool
	dropped   int
	handler   Handler
	onDrop    DropFunc
	chunkSize int
}

func NewSession(handler Handler, opts ...Option) *Session {
	s := &Session{
		handler:   handler,
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reads body until a done event, EOF, a read error or ctx cancellation.
// The body is always closed; after a done event it is drained first so the
// underlying connection can be released.
func (s *Session) Run(ctx context.Context, body io.ReadCloser) error {
	if s.closed {
		return errors.New("stream session already closed")
	}

	drain := false
	defer func() {
		if drain {
			_, _ = io.Copy(io.Discard, io.LimitReader(body, maxDrainBytes))
		}
		_ = body.Close()
	}()

	buf := make([]byte, s.chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			for _, line := range s.framer.Feed(buf[:n]) {
				if s.handleLine(line) {
					s.closed = true
					drain = true
					return nil
				}
			}
		}

		if readErr == nil {
			continue
		}
		if errors.Is(readErr, io.EOF) {
			if line, ok := s.framer.Flush(); ok {
				s.handleLine(line)
			}
			s.closed = true
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("read stream: %w", readErr)
	}
}

// handleLine applies one line and reports whether it carried a done event.
func (s *Session) handleLine(line string) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	events, err := Interpret(line)
	if err != nil {
		if !errors.Is(err, ErrNotEventLine) {
			s.dropped++
		}
		if s.onDrop != nil {
			s.onDrop(line, err)
		}
		return false
	}
	return s.Dispatch(events)
}

// Dispatch applies events in order and reports whether a done event was seen.
// Events after done on the same line are not applied.
func (s *Session) Dispatch(events []Event) bool {
	for _, ev := range events {
		switch e := ev.(type) {
		case TokenEvent:
			s.full.WriteString(e.Text)
			s.handler.OnToken(e.Text)
		case EnrichmentEvent:
			s.handler.OnEnrichment(e.Entries)
		case ScoreEvent:
			s.handler.OnScore(e.Details)
		case LearningEvent:
			s.handler.OnLearningTriggered(e.Raw)
		case ErrorEvent:
			s.handler.OnServerError(e.Message)
		case DoneEvent:
			return true
		}
	}
	return false
}

// FullText is the concatenation of every token applied so far.
func (s *Session) FullText() string {
	return s.full.String()
}

// Closed reports whether the stream ended, by done event or EOF.
func (s *Session) Closed() bool {
	return s.closed
}

// Dropped counts event lines that failed to parse.
func (s *Session) Dropped() int {
	return s.dropped
}
