package contract

import (
	"context"

	"bigsis-chat/internal/entity"

	"github.com/google/uuid"
)

type DiagnosticRepository interface {
	Create(ctx context.Context, diagnostic *entity.SavedDiagnostic) error
	Update(ctx context.Context, diagnostic *entity.SavedDiagnostic) error
	// FindById returns nil without error when the id is unknown.
	FindById(ctx context.Context, id uuid.UUID) (*entity.SavedDiagnostic, error)
	// FindAllByUserId returns the user's diagnostics, newest first.
	FindAllByUserId(ctx context.Context, userId string) ([]*entity.SavedDiagnostic, error)
}
