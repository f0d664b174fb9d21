package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"google.golang.org/genai"
)

// GeminiExtractor is the Extractor backed by a Gemini model in JSON mode.
type GeminiExtractor struct {
	client     *genai.Client
	model      string
	categories CategoryLister
}

// NewGeminiClient creates the GenAI client shared by the extractor and the
// transcriber.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiClient: create genai client: %w", err)
	}
	return client, nil
}

// NewGeminiExtractor creates a new instance of GeminiExtractor.
func NewGeminiExtractor(client *genai.Client, model string, categories CategoryLister) *GeminiExtractor {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiExtractor{client: client, model: model, categories: categories}
}

// Extract implements Extractor.
func (g *GeminiExtractor) Extract(ctx context.Context, text string, today civil.Date) (Candidate, error) {
	cats, err := g.categories.ListActive(ctx)
	if err != nil {
		return Candidate{}, fmt.Errorf("GeminiExtractor.Extract: loading categories: %w", err)
	}
	if len(cats) == 0 {
		return Candidate{}, fmt.Errorf("GeminiExtractor.Extract: no active categories found")
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(buildExtractionPrompt(cats), genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0),
	}
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildUserPrompt(text, today)}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return Candidate{}, fmt.Errorf("GeminiExtractor.Extract: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return Candidate{}, fmt.Errorf("GeminiExtractor.Extract: empty response from model")
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &parsed); err != nil {
		return Candidate{}, fmt.Errorf("GeminiExtractor.Extract: unmarshal JSON: %w", err)
	}

	return transformModelOutput(parsed, today, NewCategoryMatcher(cats)), nil
}

// GeminiTranscriber is the Transcriber backed by a Gemini audio model.
type GeminiTranscriber struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiTranscriber creates a new instance of GeminiTranscriber.
func NewGeminiTranscriber(client *genai.Client, model string, timeout time.Duration) *GeminiTranscriber {
	if model == "" {
		model = DefaultTranscribeModel
	}
	if timeout <= 0 {
		timeout = DefaultTranscribeTimeout
	}
	return &GeminiTranscriber{client: client, model: model, timeout: timeout}
}

// Transcribe implements Transcriber.
func (g *GeminiTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if mimeType == "" {
		mimeType = "audio/ogg"
	}
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: transcribePrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     audio,
					},
				},
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GeminiTranscriber.Transcribe: generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}

// cleanModelJSON strips Markdown fences and any text around the JSON object
// if the model ignored instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

// Ensure the Gemini types implement the pipeline interfaces.
var (
	_ Extractor   = (*GeminiExtractor)(nil)
	_ Transcriber = (*GeminiTranscriber)(nil)
)
