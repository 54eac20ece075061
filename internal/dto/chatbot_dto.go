package dto

// ChatMessageDTO is one transcript line as sent to the backend.
type ChatMessageDTO struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content"`
}

type ChatContextDTO struct {
	Area string `json:"area,omitempty"`
}

// DiagnosticChatRequest opens a diagnostic stream.
type DiagnosticChatRequest struct {
	Messages []ChatMessageDTO `json:"messages" validate:"required,min=1,dive"`
	Language string           `json:"language" validate:"required"`
	Context  *ChatContextDTO  `json:"context,omitempty"`
}

// DiagnosticPayload is the JSON embedded between the sentinel markers.
type DiagnosticPayload struct {
	ConfidenceScore       float64               `json:"score_confiance"`
	Zone                  string                `json:"zone"`
	Concern               string                `json:"concern"`
	Options               []DiagnosticOptionDTO `json:"options"`
	Risks                 []string              `json:"risques"`
	PractitionerQuestions []string              `json:"questions_praticien"`
	SafetyWarnings        []string              `json:"safety_warnings,omitempty"`
}

type DiagnosticOptionDTO struct {
	Name      string `json:"name"`
	Relevance string `json:"pertinence"` // haute | moyenne | basse
	Slug      string `json:"slug,omitempty"`
}

// LearningTriggeredDTO describes one background learning job started by the
// backend for a recommendation without a published sheet.
type LearningTriggeredDTO struct {
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	TopicId string `json:"topic_id,omitempty"`
}
