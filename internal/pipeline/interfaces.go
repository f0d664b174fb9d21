package pipeline

import (
	"context"
	"errors"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/ledger-bot/internal/domain"
)

var (
	// ErrLLMDisabled is returned by the disabled extractor.
	ErrLLMDisabled = errors.New("pipeline: llm extraction disabled")
	// ErrEmptyTranscript is returned when a voice note produced no text.
	ErrEmptyTranscript = errors.New("pipeline: empty transcript")
)

// Extractor turns free text into a candidate record. today is the reference
// date in the user's timezone.
type Extractor interface {
	Extract(ctx context.Context, text string, today civil.Date) (Candidate, error)
}

// Transcriber turns a voice note into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// CategoryLister provides the active categories the model may choose from.
// This is a minimal interface to avoid depending on the ledger package.
type CategoryLister interface {
	ListActive(ctx context.Context) ([]domain.Category, error)
}

// DisabledExtractor always fails with ErrLLMDisabled, so a disabled LLM
// takes the same fallback path as a failed one.
type DisabledExtractor struct{}

// Extract implements Extractor.
func (DisabledExtractor) Extract(ctx context.Context, text string, today civil.Date) (Candidate, error) {
	return Candidate{}, ErrLLMDisabled
}
