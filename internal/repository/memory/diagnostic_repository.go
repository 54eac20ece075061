package memory

import (
	"context"
	"sort"
	"time"

	"bigsis-chat/internal/entity"
	"bigsis-chat/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type DiagnosticRepository struct {
	cache *cache.Cache
}

var _ contract.DiagnosticRepository = (*DiagnosticRepository)(nil)

// NewDiagnosticRepository keeps saved diagnostics for ttl, purging expired
// items every 10 minutes.
func NewDiagnosticRepository(ttl time.Duration) *DiagnosticRepository {
	return &DiagnosticRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *DiagnosticRepository) Create(ctx context.Context, diagnostic *entity.SavedDiagnostic) error {
	return r.cache.Add(diagnostic.Id.String(), copyDiagnostic(diagnostic), cache.DefaultExpiration)
}

func (r *DiagnosticRepository) Update(ctx context.Context, diagnostic *entity.SavedDiagnostic) error {
	return r.cache.Replace(diagnostic.Id.String(), copyDiagnostic(diagnostic), cache.DefaultExpiration)
}

func (r *DiagnosticRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.SavedDiagnostic, error) {
	if x, found := r.cache.Get(id.String()); found {
		return copyDiagnostic(x.(*entity.SavedDiagnostic)), nil
	}
	return nil, nil
}

func (r *DiagnosticRepository) FindAllByUserId(ctx context.Context, userId string) ([]*entity.SavedDiagnostic, error) {
	var out []*entity.SavedDiagnostic
	for _, item := range r.cache.Items() {
		d := item.Object.(*entity.SavedDiagnostic)
		if d.UserId == userId {
			out = append(out, copyDiagnostic(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func copyDiagnostic(d *entity.SavedDiagnostic) *entity.SavedDiagnostic {
	c := *d
	c.ChatMessages = append([]entity.TranscriptLine(nil), d.ChatMessages...)
	if d.Feedback != nil {
		f := *d.Feedback
		c.Feedback = &f
	}
	return &c
}
