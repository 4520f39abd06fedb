package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// classifierSystemPrompt instructs providers to answer with a single JSON
// object so parsing stays uniform across tiers.
const classifierSystemPrompt = `You are a customs classification assistant. ` +
	`Given a product description, respond with a single JSON object: ` +
	`{"code": "<harmonized code, digits only>", "explanation": "<one sentence>", ` +
	`"confidence": <0-100>, "mfn_rate": <percent or 0>, "usmca_rate": <percent or 0>}. ` +
	`Respond with JSON only, no surrounding text.`

// parseSuggestion extracts a Suggestion from raw provider output. Providers
// often wrap JSON in markdown fences or add prose around it; both are
// stripped before decoding.
func parseSuggestion(content string) (Suggestion, error) {
	cleaned := cleanMarkdownWrapper(content)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return Suggestion{}, fmt.Errorf("no JSON object in response: %q", truncateForError(content))
	}

	var payload struct {
		Code        string  `json:"code"`
		Explanation string  `json:"explanation"`
		Confidence  float64 `json:"confidence"`
		MFNRate     float64 `json:"mfn_rate"`
		USMCARate   float64 `json:"usmca_rate"`
	}
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &payload); err != nil {
		return Suggestion{}, fmt.Errorf("failed to decode suggestion: %w", err)
	}

	code := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, payload.Code)
	if len(code) < 2 {
		return Suggestion{}, fmt.Errorf("suggestion carries no usable code: %q", payload.Code)
	}

	confidence := int(payload.Confidence)
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	return Suggestion{
		Code:        code,
		Explanation: strings.TrimSpace(payload.Explanation),
		Confidence:  confidence,
		MFNRate:     payload.MFNRate,
		USMCARate:   payload.USMCARate,
	}, nil
}

// cleanMarkdownWrapper strips ```json fences from provider output.
func cleanMarkdownWrapper(content string) string {
	cleaned := strings.TrimSpace(content)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

func truncateForError(content string) string {
	const limit = 120
	if len(content) <= limit {
		return content
	}
	return content[:limit] + "..."
}
