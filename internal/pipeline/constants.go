package pipeline

import "time"

// Default values for extraction and transcription.
const (
	// DefaultModelName is the default Gemini model used for extraction.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultTranscribeModel is the default Gemini model used for voice notes.
	DefaultTranscribeModel = "gemini-2.5-flash"

	// DefaultExtractTimeout bounds a single extraction call.
	DefaultExtractTimeout = 20 * time.Second

	// DefaultTranscribeTimeout bounds a single transcription call.
	DefaultTranscribeTimeout = 60 * time.Second
)

// Names reported in Outcome.Extractor.
const (
	ExtractorLLM      = "llm"
	ExtractorFallback = "fallback"
)
