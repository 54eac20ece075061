package service

import (
	"context"
	"errors"
	"time"

	"bigsis-chat/internal/dto"
	"bigsis-chat/internal/entity"
	"bigsis-chat/internal/mapper"
	"bigsis-chat/internal/pkg/logger"
	"bigsis-chat/internal/repository/contract"

	"github.com/google/uuid"
)

var ErrDiagnosticNotFound = errors.New("diagnostic not found")

// IStubDiagnosticService is the storage side of the local backend.
type IStubDiagnosticService interface {
	Save(ctx context.Context, userId string, req *dto.SaveDiagnosticRequest) (*dto.SaveDiagnosticResponse, error)
	SubmitFeedback(ctx context.Context, userId string, id uuid.UUID, req *dto.FeedbackRequest) (*dto.FeedbackResponse, error)
	List(ctx context.Context, userId string) ([]dto.SavedDiagnosticResponse, error)
}

type stubDiagnosticService struct {
	repo   contract.DiagnosticRepository
	mapper *mapper.DiagnosticMapper
	logger logger.ILogger
	now    func() time.Time
}

func NewStubDiagnosticService(repo contract.DiagnosticRepository, sysLogger logger.ILogger) IStubDiagnosticService {
	return &stubDiagnosticService{
		repo:   repo,
		mapper: mapper.NewDiagnosticMapper(),
		logger: sysLogger,
		now:    time.Now,
	}
}

func (s *stubDiagnosticService) Save(ctx context.Context, userId string, req *dto.SaveDiagnosticRequest) (*dto.SaveDiagnosticResponse, error) {
	diagnostic := s.mapper.SaveRequestToEntity(userId, req)
	diagnostic.Id = uuid.New()
	diagnostic.CreatedAt = s.now().UTC()

	if err := s.repo.Create(ctx, diagnostic); err != nil {
		return nil, err
	}

	s.logger.Info(logger.ModuleStub, "Diagnostic stored", map[string]interface{}{
		"diagnostic_id": diagnostic.Id.String(),
		"user_id":       userId,
		"area":          diagnostic.Area,
	})
	return &dto.SaveDiagnosticResponse{Id: diagnostic.Id, Status: dto.SaveStatusSaved}, nil
}

// SubmitFeedback reports ErrDiagnosticNotFound for unknown ids and for
// diagnostics owned by another user.
func (s *stubDiagnosticService) SubmitFeedback(ctx context.Context, userId string, id uuid.UUID, req *dto.FeedbackRequest) (*dto.FeedbackResponse, error) {
	diagnostic, err := s.repo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if diagnostic == nil || diagnostic.UserId != userId {
		return nil, ErrDiagnosticNotFound
	}

	diagnostic.Feedback = &entity.DiagnosticFeedback{
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Update(ctx, diagnostic); err != nil {
		return nil, err
	}

	s.logger.Info(logger.ModuleStub, "Feedback stored", map[string]interface{}{
		"diagnostic_id": id.String(),
		"rating":        req.Rating,
	})
	return &dto.FeedbackResponse{Id: id, Status: "updated"}, nil
}

func (s *stubDiagnosticService) List(ctx context.Context, userId string) ([]dto.SavedDiagnosticResponse, error) {
	diagnostics, err := s.repo.FindAllByUserId(ctx, userId)
	if err != nil {
		return nil, err
	}

	res := make([]dto.SavedDiagnosticResponse, 0, len(diagnostics))
	for _, d := range diagnostics {
		res = append(res, s.mapper.SavedDiagnosticToResponse(d))
	}
	return res, nil
}
