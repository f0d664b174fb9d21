package pipeline

import "cloud.google.com/go/civil"

// Candidate is what an extractor made of a message. NeedsReview is the
// confidence signal: true means the category must be confirmed by the user.
type Candidate struct {
	OpDate      civil.Date
	Amount      int64
	Category    string // display name of an active category, or empty
	NeedsReview bool
}

// Outcome is the result of Pipeline.Extract. It always carries a usable
// candidate; Err holds the primary extractor's failure, for logging only.
type Outcome struct {
	Candidate Candidate
	Extractor string // ExtractorLLM | ExtractorFallback
	Err       error
}

// Degraded reports whether the fallback produced the candidate.
func (o Outcome) Degraded() bool { return o.Extractor == ExtractorFallback }
