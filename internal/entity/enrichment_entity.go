package entity

// EnrichmentEntry is the badge metadata of one recommendation. Optional
// fields are nil until an update supplies them.
type EnrichmentEntry struct {
	HasPublishedSheet  bool
	TrustScore         *float64
	LearningInProgress *bool
}

// IsLearning reports an ongoing background learning without a published sheet.
func (e EnrichmentEntry) IsLearning() bool {
	return e.LearningInProgress != nil && *e.LearningInProgress && !e.HasPublishedSheet
}

// ScoreBreakdown is replaced wholesale by each side-channel update.
type ScoreBreakdown struct {
	Total      float64
	Scientific float64
	Personal   float64
}
