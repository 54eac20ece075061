package presenter

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"bigsis-chat/internal/constant"
	"bigsis-chat/internal/entity"

	"github.com/fatih/color"
)

const (
	BadgeSheet     = "Fiche"
	BadgeLearning  = "learning"
	BadgeSheetSoon = "sheet soon"

	// sheetSoonTrust is the trust score from which a missing sheet is
	// announced as coming.
	sheetSoonTrust = 40
	// profileHintBelow triggers the hint to share age and skin type.
	profileHintBelow = 25
)

// Badges lists the labels shown next to an option.
func Badges(entry entity.EnrichmentEntry) []string {
	var out []string
	if entry.HasPublishedSheet {
		out = append(out, BadgeSheet)
	}
	if entry.TrustScore != nil {
		out = append(out, fmt.Sprintf("TRS %.0f", *entry.TrustScore))
	}
	if entry.IsLearning() {
		out = append(out, BadgeLearning)
	}
	if !entry.HasPublishedSheet && entry.TrustScore != nil && *entry.TrustScore >= sheetSoonTrust {
		out = append(out, BadgeSheetSoon)
	}
	return out
}

// ScoreView is the score shown under a diagnostic, each half out of 50.
type ScoreView struct {
	Total      float64
	Scientific float64
	Personal   float64
	// Estimated is set when the score was derived from the confidence.
	Estimated  bool
	AskProfile bool
}

// Score prefers the streamed breakdown and falls back to splitting the
// diagnostic confidence evenly.
func Score(breakdown *entity.ScoreBreakdown, d *entity.Diagnostic) ScoreView {
	var v ScoreView
	switch {
	case breakdown != nil:
		v = ScoreView{Total: breakdown.Total, Scientific: breakdown.Scientific, Personal: breakdown.Personal}
	case d != nil:
		half := math.Round(d.ConfidenceScore * 0.5)
		v = ScoreView{Total: 2 * half, Scientific: half, Personal: half, Estimated: true}
	}
	v.AskProfile = v.Personal < profileHintBelow
	return v
}

// DiagnosticPresenter writes diagnostics as a terminal card.
type DiagnosticPresenter struct {
	out io.Writer

	title   *color.Color
	label   *color.Color
	badge   *color.Color
	warning *color.Color
	muted   *color.Color
}

func NewDiagnosticPresenter(out io.Writer) *DiagnosticPresenter {
	return &DiagnosticPresenter{
		out:     out,
		title:   color.New(color.FgMagenta, color.Bold),
		label:   color.New(color.FgCyan),
		badge:   color.New(color.FgGreen),
		warning: color.New(color.FgRed, color.Bold),
		muted:   color.New(color.FgHiBlack),
	}
}

func (p *DiagnosticPresenter) Render(d *entity.Diagnostic, enrichment map[string]entity.EnrichmentEntry, breakdown *entity.ScoreBreakdown) {
	if d == nil {
		return
	}

	zone := d.Zone
	if label, ok := constant.ZoneLabels[d.Zone]; ok {
		zone = label
	}
	p.title.Fprintf(p.out, "\n== Diagnostic : %s ==\n", zone)
	if d.Concern != "" {
		p.label.Fprint(p.out, "Preoccupation : ")
		fmt.Fprintln(p.out, d.Concern)
	}

	score := Score(breakdown, d)
	p.label.Fprint(p.out, "Score : ")
	fmt.Fprintf(p.out, "%.0f/100 (scientifique %.0f/50, personnel %.0f/50)", score.Total, score.Scientific, score.Personal)
	if score.Estimated {
		p.muted.Fprint(p.out, " estime")
	}
	fmt.Fprintln(p.out)
	if score.AskProfile {
		p.muted.Fprintln(p.out, "  Precise ton age et ton type de peau pour affiner le score.")
	}

	if len(d.Options) > 0 {
		p.label.Fprintln(p.out, "Options :")
		for _, o := range d.Options {
			fmt.Fprintf(p.out, "  - %s (%s)", o.Name, o.Relevance)
			if o.RecommendationId != "" {
				if badges := Badges(enrichment[o.RecommendationId]); len(badges) > 0 {
					p.badge.Fprintf(p.out, " [%s]", strings.Join(badges, "] ["))
				}
			}
			fmt.Fprintln(p.out)
		}
	}

	p.list("Risques :", d.Risks)
	p.list("Questions a poser au praticien :", d.PractitionerQuestions)

	for _, w := range d.SafetyWarnings {
		p.warning.Fprintf(p.out, "! %s\n", w)
	}

	if learning := LearningIds(enrichment); len(learning) > 0 {
		p.muted.Fprintf(p.out, "BigSis se documente sur : %s\n", strings.Join(learning, ", "))
	}
}

func (p *DiagnosticPresenter) list(title string, items []string) {
	if len(items) == 0 {
		return
	}
	p.label.Fprintln(p.out, title)
	for _, item := range items {
		fmt.Fprintf(p.out, "  - %s\n", item)
	}
}

// LearningIds returns the sorted ids whose entry is still learning.
func LearningIds(enrichment map[string]entity.EnrichmentEntry) []string {
	var ids []string
	for id, e := range enrichment {
		if e.IsLearning() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
