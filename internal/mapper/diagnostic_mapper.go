package mapper

import (
	"strings"

	"bigsis-chat/internal/constant"
	"bigsis-chat/internal/dto"
	"bigsis-chat/internal/entity"
	"bigsis-chat/pkg/enrichment"
	"bigsis-chat/pkg/stream"
)

type DiagnosticMapper struct{}

func NewDiagnosticMapper() *DiagnosticMapper {
	return &DiagnosticMapper{}
}

// Wire -> Entity

func (m *DiagnosticMapper) PayloadToEntity(p *dto.DiagnosticPayload) *entity.Diagnostic {
	if p == nil {
		return nil
	}

	options := make([]entity.Option, 0, len(p.Options))
	for _, o := range p.Options {
		options = append(options, entity.Option{
			Name:             o.Name,
			Relevance:        m.RelevanceFromWire(o.Relevance),
			RecommendationId: o.Slug,
		})
	}

	return &entity.Diagnostic{
		ConfidenceScore:       p.ConfidenceScore,
		Zone:                  p.Zone,
		Concern:               p.Concern,
		Options:               options,
		Risks:                 nonNil(p.Risks),
		PractitionerQuestions: nonNil(p.PractitionerQuestions),
		SafetyWarnings:        nonNil(p.SafetyWarnings),
	}
}

// RelevanceFromWire accepts the backend's French levels and their English
// equivalents. Anything else is low.
func (m *DiagnosticMapper) RelevanceFromWire(v string) entity.Relevance {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "haute", "high":
		return entity.RelevanceHigh
	case "moyenne", "medium":
		return entity.RelevanceMedium
	default:
		return entity.RelevanceLow
	}
}

func (m *DiagnosticMapper) RelevanceToWire(r entity.Relevance) string {
	switch r {
	case entity.RelevanceHigh:
		return "haute"
	case entity.RelevanceMedium:
		return "moyenne"
	default:
		return "basse"
	}
}

// Entity -> Wire

func (m *DiagnosticMapper) EntityToPayload(d *entity.Diagnostic) *dto.DiagnosticPayload {
	if d == nil {
		return nil
	}

	options := make([]dto.DiagnosticOptionDTO, 0, len(d.Options))
	for _, o := range d.Options {
		options = append(options, dto.DiagnosticOptionDTO{
			Name:      o.Name,
			Relevance: m.RelevanceToWire(o.Relevance),
			Slug:      o.RecommendationId,
		})
	}

	return &dto.DiagnosticPayload{
		ConfidenceScore:       d.ConfidenceScore,
		Zone:                  d.Zone,
		Concern:               d.Concern,
		Options:               options,
		Risks:                 nonNil(d.Risks),
		PractitionerQuestions: nonNil(d.PractitionerQuestions),
		SafetyWarnings:        d.SafetyWarnings,
	}
}

// TurnsToMessages renders finalized turns for the backend. Open turns are
// skipped.
func (m *DiagnosticMapper) TurnsToMessages(turns []entity.Turn) []dto.ChatMessageDTO {
	messages := make([]dto.ChatMessageDTO, 0, len(turns))
	for _, t := range turns {
		if t.Open {
			continue
		}
		messages = append(messages, dto.ChatMessageDTO{
			Role:    string(t.Role),
			Content: t.Text,
		})
	}
	return messages
}

// SaveRequest builds the persistence payload for d. The area falls back to
// the configured zone, then to the unspecified marker.
func (m *DiagnosticMapper) SaveRequest(d *entity.Diagnostic, zone string, turns []entity.Turn) dto.SaveDiagnosticRequest {
	req := dto.SaveDiagnosticRequest{
		Area:         constant.UnspecifiedArea,
		ChatMessages: m.TurnsToMessages(turns),
	}
	if zone != "" {
		req.Area = zone
	}
	if d == nil {
		return req
	}

	if d.Zone != "" {
		req.Area = d.Zone
	}
	if d.Concern != "" {
		concern := d.Concern
		req.WrinkleType = &concern
	}
	score := d.ConfidenceScore
	req.Score = &score
	if top := d.TopRecommendation(); top != "" {
		req.TopRecommendation = &top
	}
	return req
}

// Stream side channel -> Entity

func (m *DiagnosticMapper) PatchesFromStream(entries map[string]stream.EnrichmentPatch) map[string]enrichment.Patch {
	patches := make(map[string]enrichment.Patch, len(entries))
	for id, e := range entries {
		patches[id] = enrichment.Patch{
			HasPublishedSheet:  e.HasFiche,
			TrustScore:         e.TRS,
			LearningInProgress: e.Learning,
		}
	}
	return patches
}

func (m *DiagnosticMapper) ScoreFromStream(s stream.ScoreDetails) entity.ScoreBreakdown {
	return entity.ScoreBreakdown{
		Total:      s.Total,
		Scientific: s.Scientific,
		Personal:   s.Personal,
	}
}

// Stored diagnostics (stub backend)

func (m *DiagnosticMapper) SaveRequestToEntity(userId string, req *dto.SaveDiagnosticRequest) *entity.SavedDiagnostic {
	lines := make([]entity.TranscriptLine, 0, len(req.ChatMessages))
	for _, msg := range req.ChatMessages {
		lines = append(lines, entity.TranscriptLine{Role: msg.Role, Content: msg.Content})
	}
	return &entity.SavedDiagnostic{
		UserId:            userId,
		Area:              req.Area,
		WrinkleType:       req.WrinkleType,
		Score:             req.Score,
		TopRecommendation: req.TopRecommendation,
		ChatMessages:      lines,
	}
}

func (m *DiagnosticMapper) SavedDiagnosticToResponse(s *entity.SavedDiagnostic) dto.SavedDiagnosticResponse {
	messages := make([]dto.ChatMessageDTO, 0, len(s.ChatMessages))
	for _, l := range s.ChatMessages {
		messages = append(messages, dto.ChatMessageDTO{Role: l.Role, Content: l.Content})
	}

	res := dto.SavedDiagnosticResponse{
		Id:                s.Id,
		Area:              s.Area,
		WrinkleType:       s.WrinkleType,
		Score:             s.Score,
		TopRecommendation: s.TopRecommendation,
		ChatMessages:      messages,
		CreatedAt:         s.CreatedAt,
	}
	if s.Feedback != nil {
		rating := s.Feedback.Rating
		res.FeedbackRating = &rating
		res.FeedbackComment = s.Feedback.Comment
	}
	return res
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}
