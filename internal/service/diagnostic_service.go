package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bigsis-chat/internal/auth"
	"bigsis-chat/internal/dto"
	"bigsis-chat/internal/mapper"
	"bigsis-chat/internal/pkg/logger"
	"bigsis-chat/pkg/conversation"
	"bigsis-chat/pkg/events"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

type SaveStatus int

const (
	SaveStatusSaved SaveStatus = iota
	// SaveStatusAlreadySaved: this conversation's diagnostic was saved before.
	SaveStatusAlreadySaved
	// SaveStatusRedirect: no session, nothing was sent. The user should be
	// sent to LoginURL.
	SaveStatusRedirect
	SaveStatusNoDiagnostic
	// SaveStatusFailed: the request failed. Logged only.
	SaveStatusFailed
)

func (s SaveStatus) String() string {
	switch s {
	case SaveStatusSaved:
		return "saved"
	case SaveStatusAlreadySaved:
		return "already_saved"
	case SaveStatusRedirect:
		return "redirect"
	case SaveStatusNoDiagnostic:
		return "no_diagnostic"
	default:
		return "failed"
	}
}

type SaveResult struct {
	Status   SaveStatus
	Id       string
	LoginURL string
}

type FeedbackResult struct {
	// Acknowledged is committed as soon as the rating is accepted, whatever
	// happens to the requests.
	Acknowledged bool
	Save         *SaveResult
	Sent         bool
}

// DiagnosticStore is the remote storage of saved diagnostics.
type DiagnosticStore interface {
	SaveDiagnostic(ctx context.Context, token string, req *dto.SaveDiagnosticRequest) (*dto.SaveDiagnosticResponse, error)
	SubmitFeedback(ctx context.Context, token, diagnosticId string, req *dto.FeedbackRequest) error
}

// IDiagnosticService persists the conversation's diagnostic and attaches a
// rating to it. Both are best-effort: remote failures are logged and never
// returned.
type IDiagnosticService interface {
	Save(ctx context.Context) SaveResult
	SubmitFeedback(ctx context.Context, rating int, comment *string) (*FeedbackResult, error)
	SavedId() string
	FeedbackGiven() bool
}

type diagnosticService struct {
	store     *conversation.Store
	remote    DiagnosticStore
	sessions  auth.SessionProvider
	publisher events.Publisher
	logger    logger.ILogger
	mapper    *mapper.DiagnosticMapper
	validate  *validator.Validate
	tracer    trace.Tracer
	loginURL  string

	// saveMu keeps two saves of the same conversation from racing.
	saveMu sync.Mutex

	mu            sync.Mutex
	epoch         uint64
	savedId       string
	feedbackGiven bool
}

func NewDiagnosticService(
	store *conversation.Store,
	remote DiagnosticStore,
	sessions auth.SessionProvider,
	publisher events.Publisher,
	sysLogger logger.ILogger,
	loginURL string,
) IDiagnosticService {
	return &diagnosticService{
		store:     store,
		remote:    remote,
		sessions:  sessions,
		publisher: publisher,
		logger:    sysLogger,
		mapper:    mapper.NewDiagnosticMapper(),
		validate:  validator.New(),
		tracer:    otel.Tracer(tracerName),
		loginURL:  loginURL,
		epoch:     store.Epoch(),
	}
}

func (s *diagnosticService) SavedId() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked()
	return s.savedId
}

func (s *diagnosticService) FeedbackGiven() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked()
	return s.feedbackGiven
}

func (s *diagnosticService) Save(ctx context.Context) SaveResult {
	ctx, span := s.tracer.Start(ctx, "DiagnosticService.Save")
	defer span.End()

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	res := s.save(ctx)
	span.SetAttributes(attribute.String("diagnostic.save_status", res.Status.String()))
	return res
}

func (s *diagnosticService) save(ctx context.Context) SaveResult {
	epoch := s.store.Epoch()
	if id := s.SavedId(); id != "" {
		return SaveResult{Status: SaveStatusAlreadySaved, Id: id}
	}

	session, err := s.session()
	if err != nil {
		return SaveResult{Status: SaveStatusRedirect, LoginURL: s.loginURL}
	}

	diagnostic := s.store.FirstDiagnostic()
	if diagnostic == nil {
		return SaveResult{Status: SaveStatusNoDiagnostic}
	}
	req := s.mapper.SaveRequest(diagnostic, s.store.Zone(), s.store.History())

	saved, err := s.remote.SaveDiagnostic(ctx, session.Token, &req)
	if err != nil {
		s.logger.Error(logger.ModuleDiagnostic, "Failed to save diagnostic", map[string]interface{}{
			"error": err,
			"area":  req.Area,
		})
		return SaveResult{Status: SaveStatusFailed}
	}

	id := saved.Id.String()
	s.mu.Lock()
	s.syncLocked()
	if s.epoch == epoch {
		s.savedId = id
	}
	s.mu.Unlock()

	s.logger.Info(logger.ModuleDiagnostic, "Diagnostic saved", map[string]interface{}{
		"diagnostic_id": id,
		"area":          req.Area,
	})
	s.publish(ctx, events.New(events.TypeDiagnosticSaved, map[string]interface{}{
		"diagnostic_id": id,
		"area":          req.Area,
	}))
	return SaveResult{Status: SaveStatusSaved, Id: id}
}

// SubmitFeedback saves the diagnostic first when needed, then sends the
// rating. Only an invalid rating is an error.
func (s *diagnosticService) SubmitFeedback(ctx context.Context, rating int, comment *string) (*FeedbackResult, error) {
	req := &dto.FeedbackRequest{Rating: rating, Comment: comment}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRating, err)
	}

	ctx, span := s.tracer.Start(ctx, "DiagnosticService.SubmitFeedback",
		trace.WithAttributes(attribute.Int("feedback.rating", rating)))
	defer span.End()

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	result := &FeedbackResult{}
	id := s.SavedId()
	if id == "" {
		saved := s.save(ctx)
		result.Save = &saved
		id = saved.Id
	}

	s.mu.Lock()
	s.syncLocked()
	s.feedbackGiven = true
	s.mu.Unlock()
	result.Acknowledged = true

	if id == "" {
		return result, nil
	}
	session, err := s.session()
	if err != nil {
		return result, nil
	}

	if err := s.remote.SubmitFeedback(ctx, session.Token, id, req); err != nil {
		s.logger.Error(logger.ModuleDiagnostic, "Failed to submit feedback", map[string]interface{}{
			"error":         err,
			"diagnostic_id": id,
		})
		return result, nil
	}

	result.Sent = true
	s.publish(ctx, events.New(events.TypeFeedbackSubmitted, map[string]interface{}{
		"diagnostic_id": id,
		"rating":        rating,
	}))
	return result, nil
}

// syncLocked forgets the saved id and feedback flag of a conversation that
// has since been reset.
func (s *diagnosticService) syncLocked() {
	if epoch := s.store.Epoch(); epoch != s.epoch {
		s.epoch = epoch
		s.savedId = ""
		s.feedbackGiven = false
	}
}

func (s *diagnosticService) session() (*auth.Session, error) {
	if s.sessions == nil {
		return nil, auth.ErrNoSession
	}
	session, err := s.sessions.Session()
	if err != nil {
		if !errors.Is(err, auth.ErrNoSession) {
			s.logger.Warn(logger.ModuleDiagnostic, "Session unusable", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, err
	}
	return session, nil
}

func (s *diagnosticService) publish(ctx context.Context, event events.Event) {
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
