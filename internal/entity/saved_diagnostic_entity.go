package entity

import (
	"time"

	"github.com/google/uuid"
)

// SavedDiagnostic is a persisted diagnostic as held by the stub backend.
type SavedDiagnostic struct {
	Id                uuid.UUID
	UserId            string
	Area              string
	WrinkleType       *string
	Score             *float64
	TopRecommendation *string
	ChatMessages      []TranscriptLine
	Feedback          *DiagnosticFeedback
	CreatedAt         time.Time
}

type TranscriptLine struct {
	Role    string
	Content string
}

type DiagnosticFeedback struct {
	Rating    int
	Comment   *string
	CreatedAt time.Time
}
