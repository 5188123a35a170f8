// Package advisor turns a journal entry plus its sentiment annotation into
// therapy-style advice using an LLM.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"reflecto/api/internal/sentiment"

	"github.com/tmc/langchaingo/llms"
)

// Advice is the structured envelope the model is asked to produce.
type Advice struct {
	EmotionalSummary string   `json:"emotional_summary"`
	Reflection       string   `json:"reflection"`
	Suggestions      []string `json:"suggestions"`
}

type Service struct {
	llm llms.Model
}

func New(llm llms.Model) *Service {
	return &Service{llm: llm}
}

const promptTemplate = `You are a licensed therapist AI assistant analyzing a user's journal entry.

Here is the journal entry:
%q

Sentiment analysis result:
- Sentiment: %s
- Polarity Score: %.4f

Based on this, provide:
1. A brief emotional summary (what emotions you sense).
2. One paragraph of empathetic reflection (show understanding of their mood).
3. Three personalized therapy-based advice points to help them feel better or grow.

Output must be in clean JSON format:
{"emotional_summary": "...", "reflection": "...", "suggestions": ["...", "...", "..."]}`

// Generate asks the model for advice and returns the parsed JSON envelope.
// A response that cannot be parsed is wrapped in an error envelope rather
// than failing the journal write.
func (s *Service) Generate(ctx context.Context, journalText string, result sentiment.Result) (json.RawMessage, error) {
	prompt := fmt.Sprintf(promptTemplate, journalText, result.Sentiment, result.PolarityScore)

	text, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt, llms.WithTemperature(0.3))
	if err != nil {
		return nil, fmt.Errorf("generate advice: %w", err)
	}

	return ParseAdvice(text), nil
}

// ParseAdvice extracts the JSON envelope from raw model output, stripping
// markdown code fences. Unparseable output yields a fallback envelope
// carrying the raw text.
func ParseAdvice(text string) json.RawMessage {
	clean := strings.TrimSpace(text)
	clean = strings.ReplaceAll(clean, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	var advice Advice
	if err := json.Unmarshal([]byte(clean), &advice); err == nil {
		normalized, merr := json.Marshal(advice)
		if merr == nil {
			return normalized
		}
	}

	fallback, _ := json.Marshal(map[string]string{
		"error":      "Failed to parse advisor response",
		"raw_output": text,
	})
	return fallback
}
