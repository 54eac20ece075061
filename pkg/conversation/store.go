// Package conversation holds the transcript of one conversation and its side
// state (enrichment badges and score breakdown).
//
// Finalized turns live in an append-only list. The assistant turn that is
// still receiving tokens lives in a separate open cell and is promoted into
// the list by FinalizeTurn, so at most one open turn can exist and it is
// always last.
package conversation

import (
	"errors"
	"strings"
	"sync"

	"bigsis-chat/internal/constant"
	"bigsis-chat/internal/entity"
	"bigsis-chat/pkg/enrichment"
)

var (
	ErrInvalidInput     = errors.New("message is empty")
	ErrConcurrentStream = errors.New("an assistant turn is already streaming")
	ErrAlreadyFinalized = errors.New("no open assistant turn to finalize")
)

type Option func(*Store)

// WithStrictFinalize makes FinalizeTurn fail with ErrAlreadyFinalized when
// there is no open turn. Without it the call is ignored and reported to the
// violation func.
func WithStrictFinalize() Option {
	return func(s *Store) {
		s.strict = true
	}
}

// WithViolationFunc observes ignored logic errors.
func WithViolationFunc(fn func(error)) Option {
	return func(s *Store) {
		s.onViolation = fn
	}
}

// WithZone sets the zone used for the initial greeting.
func WithZone(zone string) Option {
	return func(s *Store) {
		s.zone = zone
	}
}

type Store struct {
	mu          sync.RWMutex
	turns       []entity.Turn
	open        *entity.Turn
	zone        string
	epoch       uint64
	score       *entity.ScoreBreakdown
	enrichment  *enrichment.Merger
	strict      bool
	onViolation func(error)
}

// NewStore returns a store holding only the greeting.
func NewStore(opts ...Option) *Store {
	s := &Store{enrichment: enrichment.NewMerger()}
	for _, opt := range opts {
		opt(s)
	}
	s.turns = []entity.Turn{greetingTurn(s.zone)}
	return s
}

// AppendUserTurn appends a finalized user turn with the trimmed text.
func (s *Store) AppendUserTurn(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open != nil {
		return ErrConcurrentStream
	}
	s.turns = append(s.turns, entity.Turn{Role: entity.RoleUser, Text: text})
	return nil
}

// BeginAssistantTurn opens an empty assistant turn.
func (s *Store) BeginAssistantTurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open != nil {
		return ErrConcurrentStream
	}
	s.open = &entity.Turn{Role: entity.RoleAssistant, Open: true}
	return nil
}

// AppendToken extends the open turn. Without an open turn it does nothing:
// events may still arrive after a reset.
func (s *Store) AppendToken(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open == nil {
		return
	}
	s.open.Text += text
}

// FinalizeTurn replaces the open turn's text with cleanText, attaches a copy
// of diagnostic when non-nil and promotes the turn into the transcript.
func (s *Store) FinalizeTurn(cleanText string, diagnostic *entity.Diagnostic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalizeLocked(cleanText, diagnostic)
}

func (s *Store) finalizeLocked(cleanText string, diagnostic *entity.Diagnostic) error {
	if s.open == nil {
		if s.strict {
			return ErrAlreadyFinalized
		}
		if s.onViolation != nil {
			s.onViolation(ErrAlreadyFinalized)
		}
		return nil
	}

	turn := *s.open
	turn.Text = cleanText
	turn.Diagnostic = diagnostic.Clone()
	turn.Open = false

	s.turns = append(s.turns, turn)
	s.open = nil
	return nil
}

// Reset drops every turn and all side state, then appends the greeting for
// zone. Any open turn is discarded.
func (s *Store) Reset(zone string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.zone = zone
	s.epoch++
	s.open = nil
	s.score = nil
	s.enrichment.Reset()
	s.turns = []entity.Turn{greetingTurn(zone)}
}

// Epoch changes on every Reset. Stream consumers compare it to detect that
// the conversation they were feeding is gone.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *Store) Zone() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zone
}

// Turns returns a copy of the transcript, the open turn last if any.
func (s *Store) Turns() []entity.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Turn, 0, len(s.turns)+1)
	out = append(out, s.turns...)
	if s.open != nil {
		out = append(out, *s.open)
	}
	return out
}

// History returns the finalized turns only.
func (s *Store) History() []entity.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.Turn(nil), s.turns...)
}

func (s *Store) IsStreaming() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open != nil
}

// OpenText is the text accumulated so far by the open turn.
func (s *Store) OpenText() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.open == nil {
		return "", false
	}
	return s.open.Text, true
}

// FirstDiagnostic is the diagnostic of the earliest turn carrying one.
func (s *Store) FirstDiagnostic() *entity.Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.turns {
		if t.Diagnostic != nil {
			return t.Diagnostic
		}
	}
	return nil
}

// HasDiagnostic reports whether some turn carries a diagnostic.
func (s *Store) HasDiagnostic() bool {
	return s.FirstDiagnostic() != nil
}

// UserTurnCount counts the user turns.
func (s *Store) UserTurnCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.turns {
		if t.Role == entity.RoleUser {
			n++
		}
	}
	return n
}

func (s *Store) Enrichment() *enrichment.Merger {
	return s.enrichment
}

// MergeEnrichment forwards update to the enrichment merger.
func (s *Store) MergeEnrichment(update map[string]enrichment.Patch) {
	s.enrichment.Merge(update)
}

// SetScore replaces the score breakdown.
func (s *Store) SetScore(score entity.ScoreBreakdown) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.score = &score
}

func (s *Store) Score() (entity.ScoreBreakdown, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.score == nil {
		return entity.ScoreBreakdown{}, false
	}
	return *s.score, true
}

// Exchange is a write handle bound to the conversation generation that was
// current when it was taken. Once the store is reset its writes are dropped,
// so a stream still draining after a reset cannot touch the new conversation.
type Exchange struct {
	s     *Store
	epoch uint64
}

func (s *Store) Exchange() Exchange {
	return Exchange{s: s, epoch: s.Epoch()}
}

// Stale reports whether the store was reset since the handle was taken.
func (x Exchange) Stale() bool {
	return x.s.Epoch() != x.epoch
}

// AppendToken reports whether the token was applied.
func (x Exchange) AppendToken(text string) bool {
	x.s.mu.Lock()
	defer x.s.mu.Unlock()

	if x.s.epoch != x.epoch || x.s.open == nil {
		return false
	}
	x.s.open.Text += text
	return true
}

func (x Exchange) MergeEnrichment(update map[string]enrichment.Patch) bool {
	x.s.mu.Lock()
	defer x.s.mu.Unlock()

	if x.s.epoch != x.epoch {
		return false
	}
	x.s.enrichment.Merge(update)
	return true
}

func (x Exchange) SetScore(score entity.ScoreBreakdown) bool {
	x.s.mu.Lock()
	defer x.s.mu.Unlock()

	if x.s.epoch != x.epoch {
		return false
	}
	x.s.score = &score
	return true
}

// Finalize is FinalizeTurn for this generation. It reports false without
// error when the store was reset in between.
func (x Exchange) Finalize(cleanText string, diagnostic *entity.Diagnostic) (bool, error) {
	x.s.mu.Lock()
	defer x.s.mu.Unlock()

	if x.s.epoch != x.epoch {
		return false, nil
	}
	if err := x.s.finalizeLocked(cleanText, diagnostic); err != nil {
		return false, err
	}
	return true, nil
}

func greetingTurn(zone string) entity.Turn {
	return entity.Turn{Role: entity.RoleAssistant, Text: constant.Greeting(zone)}
}
