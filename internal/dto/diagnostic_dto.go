package dto

import (
	"time"

	"github.com/google/uuid"
)

const SaveStatusSaved = "saved"

type SaveDiagnosticRequest struct {
	Area              string           `json:"area" validate:"required"`
	WrinkleType       *string          `json:"wrinkle_type"`
	Score             *float64         `json:"score" validate:"omitempty,gte=0,lte=100"`
	TopRecommendation *string          `json:"top_recommendation"`
	ChatMessages      []ChatMessageDTO `json:"chat_messages" validate:"dive"`
}

type SaveDiagnosticResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type FeedbackRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

type FeedbackResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type SavedDiagnosticResponse struct {
	Id                uuid.UUID        `json:"id"`
	Area              string           `json:"area"`
	WrinkleType       *string          `json:"wrinkle_type"`
	Score             *float64         `json:"score"`
	TopRecommendation *string          `json:"top_recommendation"`
	ChatMessages      []ChatMessageDTO `json:"chat_messages"`
	FeedbackRating    *int             `json:"feedback_rating,omitempty"`
	FeedbackComment   *string          `json:"feedback_comment,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}
