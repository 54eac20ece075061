package entity

type Relevance string

const (
	RelevanceHigh   Relevance = "high"
	RelevanceMedium Relevance = "medium"
	RelevanceLow    Relevance = "low"
)

type Option struct {
	Name      string
	Relevance Relevance
	// RecommendationId is the catalogue slug, used to look up enrichment.
	RecommendationId string
}

type Diagnostic struct {
	ConfidenceScore       float64
	Zone                  string
	Concern               string
	Options               []Option
	Risks                 []string
	PractitionerQuestions []string
	SafetyWarnings        []string
}

// TopRecommendation is the name of the first option, if any.
func (d *Diagnostic) TopRecommendation() string {
	if d == nil || len(d.Options) == 0 {
		return ""
	}
	return d.Options[0].Name
}

// Clone returns a deep copy.
func (d *Diagnostic) Clone() *Diagnostic {
	if d == nil {
		return nil
	}
	c := *d
	c.Options = append([]Option(nil), d.Options...)
	c.Risks = append([]string(nil), d.Risks...)
	c.PractitionerQuestions = append([]string(nil), d.PractitionerQuestions...)
	c.SafetyWarnings = append([]string(nil), d.SafetyWarnings...)
	return &c
}
