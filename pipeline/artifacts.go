package pipeline

// Verdict classifies a quality-check report.
type Verdict string

const (
	// VerdictPass indicates the checked artifact is acceptable as-is.
	VerdictPass Verdict = "pass"
	// VerdictRevise indicates the producing stage should be re-run.
	VerdictRevise Verdict = "revise"
	// VerdictReject indicates the artifact is unsalvageable. Hard failure.
	VerdictReject Verdict = "reject"
)

// IsValid checks if a verdict is one of the known classifications.
func (v Verdict) IsValid() bool {
	switch v {
	case VerdictPass, VerdictRevise, VerdictReject:
		return true
	}
	return false
}

// SourceNote captures readable content extracted from one source hint.
type SourceNote struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Excerpt string `json:"excerpt,omitempty"`
}

// Research holds the research stage findings.
type Research struct {
	Summary   string       `json:"summary"`
	KeyPoints []string     `json:"key_points,omitempty"`
	Sources   []SourceNote `json:"sources,omitempty"`
}

// Draft holds the writer stage output.
type Draft struct {
	Content   string `json:"content"`
	WordCount int    `json:"word_count"`
}

// Issue describes one problem found during fact-checking.
type Issue struct {
	Claim      string `json:"claim"`
	Problem    string `json:"problem"`
	Suggestion string `json:"suggestion,omitempty"`
}

// FactCheckReport holds the fact-check stage classification.
type FactCheckReport struct {
	Verdict Verdict `json:"verdict"`
	Issues  []Issue `json:"issues,omitempty"`
	Summary string  `json:"summary,omitempty"`
}

// Article holds the editor stage output: the final article content and a
// quality score in [0, 1].
type Article struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
	Summary string  `json:"summary,omitempty"`
}

// CritiqueReport holds the critic stage classification with per-dimension
// scores (accuracy, clarity, completeness, structure).
type CritiqueReport struct {
	Verdict Verdict            `json:"verdict"`
	Scores  map[string]float64 `json:"scores,omitempty"`
	Notes   []string           `json:"notes,omitempty"`
}
