// Package advisor asks Gemini for a category opinion on transactions
// the rule-based resolver is unsure about. It only ever feeds the
// suggestion surface; the sync pipeline never blocks on it.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/christufur/MazzyMoney-sub001/internal/category"
)

// DefaultModelName is the Gemini model used for category suggestions.
const DefaultModelName = "gemini-2.5-flash"

// Advisor wraps a GenAI client.
type Advisor struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

// New creates an advisor. Credentials come from the environment, same
// as the rest of the Google Cloud stack.
func New(ctx context.Context, log zerolog.Logger) (*Advisor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("advisor: create genai client: %w", err)
	}
	return &Advisor{client: client, model: DefaultModelName, log: log}, nil
}

type modelSuggestion struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// SuggestCategory asks the model for one category from the canonical
// set, given the transaction's merchant, description and amount.
func (a *Advisor) SuggestCategory(ctx context.Context, merchant, description string, amount float64) (*category.Suggestion, error) {
	prompt :=
		"You are a personal finance transaction categorizer.\n\n" +
			"Task:\n" +
			"- Pick the single best category for the transaction below.\n" +
			"- Choose ONLY from this list: " + strings.Join(category.Canonical(), ", ") + ".\n" +
			"- Output STRICT JSON only (no comments, no extra text).\n" +
			"- The object must have fields \"category\" (string), \"confidence\" (number 0..1) and \"reason\" (short string).\n\n" +
			fmt.Sprintf("Transaction:\n- merchant: %q\n- description: %q\n- amount: %.2f (positive = money out, negative = money in)\n\n", merchant, description, amount) +
			"Return ONLY valid raw JSON.\n" +
			"Do NOT wrap the response in code fences.\n" +
			"Output must begin with \"{\" and end with \"}\".\n"

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("advisor: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("advisor: empty response from model")
	}

	var parsed modelSuggestion
	clean := cleanModelJSON(rawText)
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("advisor: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}
	if parsed.Category == "" {
		return nil, fmt.Errorf("advisor: model returned no category")
	}
	if parsed.Confidence < 0 {
		parsed.Confidence = 0
	}
	if parsed.Confidence > 1 {
		parsed.Confidence = 1
	}

	a.log.Debug().Str("category", parsed.Category).
		Float64("confidence", parsed.Confidence).
		Str("reason", parsed.Reason).
		Msg("Model category suggestion")
	return &category.Suggestion{Category: parsed.Category, Confidence: parsed.Confidence}, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the
// model ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

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
