package types

// ContentAnalysis is the structured result of analyzing a record's content.
// Sub-steps that failed are listed in Degraded with their neutral defaults
// already applied; callers can distinguish a fully analyzed result
// (len(Degraded)==0) from a partially degraded one.
type ContentAnalysis struct {
	RecordID string `json:"record_id,omitempty"` // Record the analysis belongs to
	UserID   string `json:"user_id,omitempty"`   // Requesting user, if any

	ContentHash    string `json:"content_hash"`    // SHA-256 hash of the raw content
	WordCount      int    `json:"word_count"`      // Token count of the raw string
	CharacterCount int    `json:"character_count"` // Length of the raw string

	Keywords  []string `json:"keywords"`  // Top-N tokens by descending frequency
	Topics    []string `json:"topics"`    // Matched topic categories, or ["general"]
	Entities  []string `json:"entities"`  // Extracted emails/URLs/phones/proper nouns
	Sentiment float64  `json:"sentiment"` // Normalized score in [-1, 1]
	Language  string   `json:"language"`  // "en" or "unknown"

	// Degraded lists the names of sub-steps that failed and fell back to a
	// neutral result ("keywords", "topics", "entities", "sentiment",
	// "language").
	Degraded []string `json:"degraded,omitempty"`
}

// IsDegraded reports whether the named sub-step fell back to its neutral
// default during analysis.
func (a *ContentAnalysis) IsDegraded(step string) bool {
	for _, s := range a.Degraded {
		if s == step {
			return true
		}
	}
	return false
}
