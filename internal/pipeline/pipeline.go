// Package pipeline turns raw message text into a candidate ledger record. A
// language model is tried first; any failure, timeout or disabled model
// degrades to a deterministic extractor so a message is never dropped.
package pipeline

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/ledger-bot/internal/logger"
)

// Pipeline runs the primary extractor with a bounded timeout and falls back
// on failure.
type Pipeline struct {
	primary  Extractor
	fallback Extractor
	timeout  time.Duration
}

// New creates a pipeline. A nil primary behaves as DisabledExtractor.
func New(primary Extractor, timeout time.Duration) *Pipeline {
	if primary == nil {
		primary = DisabledExtractor{}
	}
	if timeout <= 0 {
		timeout = DefaultExtractTimeout
	}
	return &Pipeline{
		primary:  primary,
		fallback: FallbackExtractor{},
		timeout:  timeout,
	}
}

// Extract always returns a usable outcome. The primary extractor's error is
// kept in Outcome.Err and logged as a diagnostic note.
func (p *Pipeline) Extract(ctx context.Context, text string, today civil.Date) Outcome {
	log := logger.FromContext(ctx)

	primaryCtx, cancel := context.WithTimeout(ctx, p.timeout)
	cand, err := p.primary.Extract(primaryCtx, text, today)
	cancel()
	if err == nil {
		return Outcome{Candidate: cand, Extractor: ExtractorLLM}
	}

	if errors.Is(err, ErrLLMDisabled) {
		log.Debug().Msg("llm disabled, using fallback extractor")
	} else {
		log.Warn().Err(err).Str("text", logger.Snippet(text)).Msg("extraction failed, using fallback extractor")
	}

	fb, fbErr := p.fallback.Extract(ctx, text, today)
	if fbErr != nil {
		// the deterministic extractor does not fail; keep a safe pending shape anyway
		fb = Candidate{OpDate: today, Amount: FallbackAmount(text), NeedsReview: true}
	}
	return Outcome{Candidate: fb, Extractor: ExtractorFallback, Err: err}
}
