package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"bigsis-chat/internal/constant"
	"bigsis-chat/internal/dto"
	"bigsis-chat/internal/entity"
	"bigsis-chat/internal/mapper"
	"bigsis-chat/internal/pkg/logger"
	"bigsis-chat/pkg/sentinel"
	"bigsis-chat/pkg/stream"
)

// StubQuestion is asked while the conversation names no zone.
const StubQuestion = "Pour bien te conseiller, dis-m'en un peu plus : c'est plutot le front, la ride du lion, le contour des yeux ou autour de la bouche ?"

type procedure struct {
	Slug      string
	Name      string
	Relevance entity.Relevance
	HasSheet  bool
	TRS       float64 // 0 when unknown
	Risks     []string
}

var stubCatalogue = map[string][]procedure{
	"front": {
		{Slug: "botox", Name: "Toxine botulique", Relevance: entity.RelevanceHigh, HasSheet: true, TRS: 82, Risks: []string{"Ptose palpebrale transitoire", "Hematome au point d'injection"}},
		{Slug: "skinbooster", Name: "Skinbooster", Relevance: entity.RelevanceMedium, TRS: 45, Risks: []string{"Petits nodules temporaires"}},
		{Slug: "peeling-moyen", Name: "Peeling moyen", Relevance: entity.RelevanceLow, Risks: []string{"Rougeurs prolongees"}},
	},
	"glabelle": {
		{Slug: "botox", Name: "Toxine botulique", Relevance: entity.RelevanceHigh, HasSheet: true, TRS: 82, Risks: []string{"Ptose palpebrale transitoire"}},
		{Slug: "acide-hyaluronique", Name: "Acide hyaluronique", Relevance: entity.RelevanceMedium, HasSheet: true, TRS: 74, Risks: []string{"Risque vasculaire en zone glabellaire"}},
	},
	"pattes_oie": {
		{Slug: "botox", Name: "Toxine botulique", Relevance: entity.RelevanceHigh, HasSheet: true, TRS: 82, Risks: []string{"Asymetrie du sourire"}},
		{Slug: "laser-fractionne", Name: "Laser fractionne", Relevance: entity.RelevanceMedium, TRS: 38, Risks: []string{"Hyperpigmentation sur peau mate"}},
	},
	"sillon_nasogenien": {
		{Slug: "acide-hyaluronique", Name: "Acide hyaluronique", Relevance: entity.RelevanceHigh, HasSheet: true, TRS: 74, Risks: []string{"Oedeme transitoire"}},
		{Slug: "fils-tenseurs", Name: "Fils tenseurs", Relevance: entity.RelevanceLow, Risks: []string{"Irregularites cutanees"}},
	},
	"": {
		{Slug: "botox", Name: "Toxine botulique", Relevance: entity.RelevanceMedium, HasSheet: true, TRS: 82, Risks: []string{"Hematome au point d'injection"}},
		{Slug: "skinbooster", Name: "Skinbooster", Relevance: entity.RelevanceMedium, TRS: 45, Risks: []string{"Petits nodules temporaires"}},
	},
}

var zoneKeywords = []struct {
	zone     string
	keywords []string
}{
	{"glabelle", []string{"glabelle", "lion", "entre les sourcils"}},
	{"pattes_oie", []string{"patte", "yeux", "oeil", "ride du sourire"}},
	{"sillon_nasogenien", []string{"sillon", "bouche", "nasogenien"}},
	{"front", []string{"front"}},
}

var stubQuestions = []string{
	"Quelle est votre experience sur cette zone ?",
	"Quel resultat naturel puis-je attendre et sur combien de temps ?",
	"Qu'est-ce qui est prevu en cas de complication ?",
}

// tokenSizes drives the uneven split of generated text, in runes.
var tokenSizes = []int{3, 1, 5, 2, 7, 4}

// IStubBrainService scripts the responses of the local backend.
type IStubBrainService interface {
	Respond(ctx context.Context, req *dto.DiagnosticChatRequest) ([]stream.Event, error)
}

type stubBrainService struct {
	mapper *mapper.DiagnosticMapper
	logger logger.ILogger
}

func NewStubBrainService(sysLogger logger.ILogger) IStubBrainService {
	return &stubBrainService{
		mapper: mapper.NewDiagnosticMapper(),
		logger: sysLogger,
	}
}

// Respond asks for the zone until the conversation names one or holds two
// user messages, then answers with a diagnostic and its side channel.
func (s *stubBrainService) Respond(ctx context.Context, req *dto.DiagnosticChatRequest) ([]stream.Event, error) {
	userTurns, userText := 0, ""
	for _, m := range req.Messages {
		if m.Role == constant.ChatMessageRoleUser {
			userTurns++
			userText += " " + strings.ToLower(m.Content)
		}
	}

	zone := detectZone(req, userText)
	if zone == "" && userTurns < 2 {
		out := tokenEvents(StubQuestion)
		return append(out, stream.DoneEvent{}), nil
	}

	procedures := stubCatalogue[zone]
	diagnostic := s.buildDiagnostic(zone, userTurns, userText, procedures)

	text, err := sentinel.Wrap(hook(zone), s.mapper.EntityToPayload(diagnostic))
	if err != nil {
		return nil, err
	}

	out := tokenEvents(text)
	out = append(out, enrichmentEvents(procedures)...)
	out = append(out, stream.ScoreEvent{Details: score(userTurns, procedures)})

	if learning := learningEvent(procedures); learning != nil {
		out = append(out, *learning)
	}

	s.logger.Info(logger.ModuleStub, "Scripted diagnostic", map[string]interface{}{
		"zone":       zone,
		"user_turns": userTurns,
		"options":    len(diagnostic.Options),
	})
	return append(out, stream.DoneEvent{}), nil
}

func (s *stubBrainService) buildDiagnostic(zone string, userTurns int, userText string, procedures []procedure) *entity.Diagnostic {
	d := &entity.Diagnostic{
		ConfidenceScore:       math.Min(90, float64(55+10*userTurns)),
		Zone:                  zone,
		Concern:               "rides d'expression",
		PractitionerQuestions: append([]string(nil), stubQuestions...),
		SafetyWarnings:        []string{},
	}
	if strings.Contains(userText, "statique") || strings.Contains(userText, "repos") {
		d.Concern = "rides statiques"
	}
	if strings.Contains(userText, "enceinte") || strings.Contains(userText, "allait") {
		d.SafetyWarnings = append(d.SafetyWarnings, "Pas d'injection pendant la grossesse ou l'allaitement.")
	}

	for _, p := range procedures {
		d.Options = append(d.Options, entity.Option{Name: p.Name, Relevance: p.Relevance, RecommendationId: p.Slug})
		d.Risks = append(d.Risks, p.Risks...)
	}
	return d
}

func detectZone(req *dto.DiagnosticChatRequest, userText string) string {
	if req.Context != nil && req.Context.Area != "" {
		if _, ok := stubCatalogue[req.Context.Area]; ok {
			return req.Context.Area
		}
	}
	for _, z := range zoneKeywords {
		for _, k := range z.keywords {
			if strings.Contains(userText, k) {
				return z.zone
			}
		}
	}
	return ""
}

func hook(zone string) string {
	if label, ok := constant.ZoneLabels[zone]; ok {
		return fmt.Sprintf("Zone %s : voici les pistes qui reviennent le plus souvent, a valider avec un praticien.", strings.ToLower(label))
	}
	return "Voici les pistes qui reviennent le plus souvent, a valider avec un praticien."
}

// tokenEvents splits text at rune boundaries into uneven tokens.
func tokenEvents(text string) []stream.Event {
	runes := []rune(text)
	var out []stream.Event
	for i, n := 0, 0; i < len(runes); n++ {
		end := i + tokenSizes[n%len(tokenSizes)]
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, stream.TokenEvent{Text: string(runes[i:end])})
		i = end
	}
	return out
}

// enrichmentEvents sends sheet availability first and the rest in a second,
// partial update.
func enrichmentEvents(procedures []procedure) []stream.Event {
	sheets := make(map[string]stream.EnrichmentPatch, len(procedures))
	details := make(map[string]stream.EnrichmentPatch, len(procedures))
	for _, p := range procedures {
		hasSheet := p.HasSheet
		sheets[p.Slug] = stream.EnrichmentPatch{HasFiche: &hasSheet}

		var patch stream.EnrichmentPatch
		if p.TRS > 0 {
			trs := p.TRS
			patch.TRS = &trs
		}
		if !p.HasSheet {
			learning := true
			patch.Learning = &learning
		}
		details[p.Slug] = patch
	}
	return []stream.Event{
		stream.EnrichmentEvent{Entries: sheets},
		stream.EnrichmentEvent{Entries: details},
	}
}

func score(userTurns int, procedures []procedure) stream.ScoreDetails {
	sum, n := 0.0, 0
	for _, p := range procedures {
		if p.TRS > 0 {
			sum += p.TRS
			n++
		}
	}
	scientific := 0.0
	if n > 0 {
		scientific = math.Round(sum / float64(n) / 2)
	}
	personal := math.Min(50, float64(15+10*userTurns))
	return stream.ScoreDetails{Total: scientific + personal, Scientific: scientific, Personal: personal}
}

func learningEvent(procedures []procedure) *stream.LearningEvent {
	var triggered []dto.LearningTriggeredDTO
	for _, p := range procedures {
		if !p.HasSheet {
			triggered = append(triggered, dto.LearningTriggeredDTO{
				Slug:    p.Slug,
				Name:    p.Name,
				Status:  "queued",
				TopicId: "topic-" + p.Slug,
			})
		}
	}
	if len(triggered) == 0 {
		return nil
	}
	raw, err := json.Marshal(triggered)
	if err != nil {
		return nil
	}
	return &stream.LearningEvent{Raw: raw}
}
