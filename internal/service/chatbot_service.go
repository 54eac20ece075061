package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"bigsis-chat/internal/auth"
	"bigsis-chat/internal/constant"
	"bigsis-chat/internal/dto"
	"bigsis-chat/internal/entity"
	"bigsis-chat/internal/mapper"
	"bigsis-chat/internal/pkg/logger"
	"bigsis-chat/pkg/conversation"
	"bigsis-chat/pkg/events"
	"bigsis-chat/pkg/sentinel"
	"bigsis-chat/pkg/stream"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "bigsis-chat/service"

// ExchangeState is the position of the conversation in one exchange.
type ExchangeState int

const (
	StateIdle ExchangeState = iota
	StateSending
	StateStreaming
	StateFinalizing
)

func (s ExchangeState) String() string {
	switch s {
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	default:
		return "idle"
	}
}

type ExchangeOutcome int

const (
	// OutcomeCompleted: the stream ended and the turn holds the clean text.
	OutcomeCompleted ExchangeOutcome = iota
	// OutcomeFallback: transport failure, the turn holds the fallback message.
	OutcomeFallback
	// OutcomeAbandoned: the conversation was reset while streaming.
	OutcomeAbandoned
)

type ExchangeResult struct {
	Outcome    ExchangeOutcome
	Text       string
	Diagnostic *entity.Diagnostic
	// DroppedLines counts event lines that could not be interpreted.
	DroppedLines int
	// Cause is the transport error behind a fallback. Informational only.
	Cause error
}

// StreamOpener opens the diagnostic stream for one exchange.
type StreamOpener interface {
	OpenDiagnosticStream(ctx context.Context, token string, req *dto.DiagnosticChatRequest) (io.ReadCloser, error)
}

type IChatbotService interface {
	// Send runs one full exchange. Recovered failures are reported through
	// the result; the error is reserved for rejected input and reentrancy.
	Send(ctx context.Context, text string) (*ExchangeResult, error)
	// Reset abandons any exchange in flight and starts a new conversation.
	Reset(zone string)
	State() ExchangeState
	Suggestions() []string
	Store() *conversation.Store
}

type ChatOption func(*chatbotService)

// WithTokenObserver is called with every token applied to the open turn, on
// the goroutine running Send.
func WithTokenObserver(fn func(text string)) ChatOption {
	return func(s *chatbotService) {
		s.onToken = fn
	}
}

func WithChunkSize(n int) ChatOption {
	return func(s *chatbotService) {
		s.chunkSize = n
	}
}

type chatbotService struct {
	store     *conversation.Store
	opener    StreamOpener
	sessions  auth.SessionProvider
	publisher events.Publisher
	logger    logger.ILogger
	mapper    *mapper.DiagnosticMapper
	tracer    trace.Tracer
	language  string
	chunkSize int
	onToken   func(string)

	// sendMu serializes exchanges; a second Send fails fast instead of
	// waiting.
	sendMu sync.Mutex

	mu     sync.Mutex
	state  ExchangeState
	cancel context.CancelFunc
}

func NewChatbotService(
	store *conversation.Store,
	opener StreamOpener,
	sessions auth.SessionProvider,
	publisher events.Publisher,
	sysLogger logger.ILogger,
	language string,
	opts ...ChatOption,
) IChatbotService {
	if language == "" {
		language = constant.DefaultLanguage
	}
	s := &chatbotService{
		store:     store,
		opener:    opener,
		sessions:  sessions,
		publisher: publisher,
		logger:    sysLogger,
		mapper:    mapper.NewDiagnosticMapper(),
		tracer:    otel.Tracer(tracerName),
		language:  language,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *chatbotService) Store() *conversation.Store {
	return s.store
}

func (s *chatbotService) State() ExchangeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Suggestions are offered only before the first exchange.
func (s *chatbotService) Suggestions() []string {
	if s.State() != StateIdle || len(s.store.Turns()) != 1 {
		return nil
	}
	return constant.Suggestions(s.store.Zone())
}

func (s *chatbotService) Send(ctx context.Context, text string) (*ExchangeResult, error) {
	if !s.sendMu.TryLock() {
		return nil, conversation.ErrConcurrentStream
	}
	defer s.sendMu.Unlock()

	if err := s.store.AppendUserTurn(text); err != nil {
		return nil, err
	}
	if err := s.store.BeginAssistantTurn(); err != nil {
		return nil, err
	}
	x := s.store.Exchange()

	ctx, span := s.tracer.Start(ctx, "ChatService.Send",
		trace.WithAttributes(attribute.Int("conversation.user_turns", s.store.UserTurnCount())))
	defer span.End()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.enter(StateSending, cancel)
	defer s.enter(StateIdle, nil)

	body, err := s.opener.OpenDiagnosticStream(ctx, s.bearerToken(), s.buildRequest())
	if err != nil {
		return s.fallback(ctx, span, x, err, 0)
	}

	s.enter(StateStreaming, cancel)
	sink := &exchangeSink{svc: s, x: x, ctx: ctx}
	session := stream.NewSession(sink,
		stream.WithChunkSize(s.chunkSize),
		stream.WithDropFunc(func(line string, err error) {
			if errors.Is(err, stream.ErrNotEventLine) {
				return
			}
			s.logger.Debug(logger.ModuleStream, "Dropped event line", map[string]interface{}{
				"line":  line,
				"error": err.Error(),
			})
		}),
	)
	if err := session.Run(ctx, body); err != nil {
		return s.fallback(ctx, span, x, err, session.Dropped())
	}

	s.enter(StateFinalizing, cancel)
	extracted := sentinel.Extract[dto.DiagnosticPayload](session.FullText())
	diagnostic := s.mapper.PayloadToEntity(extracted.Payload)
	if extracted.Found && extracted.Payload == nil {
		s.logger.Warn(logger.ModuleChat, "Discarded malformed diagnostic block", nil)
	}

	applied, err := x.Finalize(extracted.CleanText, diagnostic)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("finalize assistant turn: %w", err)
	}
	if !applied {
		return &ExchangeResult{Outcome: OutcomeAbandoned, DroppedLines: session.Dropped()}, nil
	}

	span.SetAttributes(
		attribute.Bool("diagnostic.present", diagnostic != nil),
		attribute.Int("stream.dropped_lines", session.Dropped()),
	)
	s.publish(ctx, events.New(events.TypeTurnFinalized, map[string]interface{}{
		"chars":          len(extracted.CleanText),
		"has_diagnostic": diagnostic != nil,
		"dropped_lines":  session.Dropped(),
	}))

	return &ExchangeResult{
		Outcome:      OutcomeCompleted,
		Text:         extracted.CleanText,
		Diagnostic:   diagnostic,
		DroppedLines: session.Dropped(),
	}, nil
}

func (s *chatbotService) Reset(zone string) {
	// The store must be reset before the exchange is cancelled: a cancelled
	// exchange on a current generation would finalize with the fallback.
	s.store.Reset(zone)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.logger.Info(logger.ModuleChat, "Conversation reset", map[string]interface{}{"zone": zone})
}

// fallback finalizes the open turn with the fallback message after a
// transport failure, unless the conversation was reset meanwhile.
func (s *chatbotService) fallback(ctx context.Context, span trace.Span, x conversation.Exchange, cause error, dropped int) (*ExchangeResult, error) {
	if x.Stale() {
		return &ExchangeResult{Outcome: OutcomeAbandoned, DroppedLines: dropped, Cause: cause}, nil
	}

	span.RecordError(cause)
	span.SetStatus(codes.Error, "diagnostic exchange failed")
	s.logger.Error(logger.ModuleChat, "Diagnostic exchange failed", map[string]interface{}{
		"error": cause,
	})

	applied, err := x.Finalize(constant.FallbackMessage, nil)
	if err != nil {
		return nil, fmt.Errorf("finalize assistant turn: %w", err)
	}
	if !applied {
		return &ExchangeResult{Outcome: OutcomeAbandoned, DroppedLines: dropped, Cause: cause}, nil
	}

	s.publish(context.WithoutCancel(ctx), events.New(events.TypeExchangeFailed, map[string]interface{}{
		"error": cause.Error(),
	}))
	return &ExchangeResult{
		Outcome:      OutcomeFallback,
		Text:         constant.FallbackMessage,
		DroppedLines: dropped,
		Cause:        cause,
	}, nil
}

func (s *chatbotService) enter(state ExchangeState, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.cancel = cancel
}

func (s *chatbotService) buildRequest() *dto.DiagnosticChatRequest {
	req := &dto.DiagnosticChatRequest{
		Messages: s.mapper.TurnsToMessages(s.store.History()),
		Language: s.language,
	}
	if zone := s.store.Zone(); zone != "" {
		req.Context = &dto.ChatContextDTO{Area: zone}
	}
	return req
}

// bearerToken returns the session token, or "" to chat anonymously.
func (s *chatbotService) bearerToken() string {
	if s.sessions == nil {
		return ""
	}
	session, err := s.sessions.Session()
	if err != nil {
		if !errors.Is(err, auth.ErrNoSession) {
			s.logger.Warn(logger.ModuleChat, "Ignoring unusable session", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return ""
	}
	return session.Token
}

func (s *chatbotService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn(logger.ModuleEvents, "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}

func (s *chatbotService) publishLearning(ctx context.Context, raw json.RawMessage) {
	var triggered []dto.LearningTriggeredDTO
	if err := json.Unmarshal(raw, &triggered); err != nil {
		s.logger.Info(logger.ModuleChat, "Learning triggered", map[string]interface{}{
			"raw": string(raw),
		})
		return
	}

	for _, t := range triggered {
		s.logger.Info(logger.ModuleChat, "Learning triggered", map[string]interface{}{
			"slug":   t.Slug,
			"status": t.Status,
		})
		s.publish(ctx, events.New(events.TypeLearningTriggered, map[string]interface{}{
			"slug":     t.Slug,
			"name":     t.Name,
			"status":   t.Status,
			"topic_id": t.TopicId,
		}))
	}
}

// exchangeSink applies stream events to the generation it was created for.
type exchangeSink struct {
	svc *chatbotService
	x   conversation.Exchange
	ctx context.Context
}

func (k *exchangeSink) OnToken(text string) {
	if k.x.AppendToken(text) && k.svc.onToken != nil {
		k.svc.onToken(text)
	}
}

func (k *exchangeSink) OnEnrichment(entries map[string]stream.EnrichmentPatch) {
	k.x.MergeEnrichment(k.svc.mapper.PatchesFromStream(entries))
}

func (k *exchangeSink) OnScore(details stream.ScoreDetails) {
	k.x.SetScore(k.svc.mapper.ScoreFromStream(details))
}

func (k *exchangeSink) OnLearningTriggered(raw json.RawMessage) {
	if k.x.Stale() {
		return
	}
	k.svc.publishLearning(k.ctx, raw)
}

func (k *exchangeSink) OnServerError(message string) {
	k.svc.logger.Warn(logger.ModuleStream, "Backend reported a generation error", map[string]interface{}{
		"message": message,
	})
}
