package memory

import (
	"context"
	"testing"
	"time"

	"bigsis-chat/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDiagnosticRepository(time.Hour)
	now := time.Now()

	older := &entity.SavedDiagnostic{Id: uuid.New(), UserId: "u-1", Area: "front", CreatedAt: now.Add(-time.Minute)}
	newer := &entity.SavedDiagnostic{Id: uuid.New(), UserId: "u-1", Area: "glabelle", CreatedAt: now}
	other := &entity.SavedDiagnostic{Id: uuid.New(), UserId: "u-2", Area: "front", CreatedAt: now}
	for _, d := range []*entity.SavedDiagnostic{older, newer, other} {
		require.NoError(t, repo.Create(ctx, d))
	}
	assert.Error(t, repo.Create(ctx, older), "duplicate ids are rejected")

	found, err := repo.FindById(ctx, older.Id)
	require.NoError(t, err)
	assert.Equal(t, "front", found.Area)

	found.Area = "changed"
	again, _ := repo.FindById(ctx, older.Id)
	assert.Equal(t, "front", again.Area, "callers get copies")

	missing, err := repo.FindById(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := repo.FindAllByUserId(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.Id, list[0].Id)

	newer.Feedback = &entity.DiagnosticFeedback{Rating: 4, CreatedAt: now}
	require.NoError(t, repo.Update(ctx, newer))
	updated, _ := repo.FindById(ctx, newer.Id)
	require.NotNil(t, updated.Feedback)
	assert.Equal(t, 4, updated.Feedback.Rating)

	assert.Error(t, repo.Update(ctx, &entity.SavedDiagnostic{Id: uuid.New()}))
}
