package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// taggerResponse is the JSON shape the tagging prompt asks for
type taggerResponse struct {
	Organizations []string `json:"organizations"`
	Dates         []string `json:"dates"`
	Amounts       []string `json:"amounts"`
}

// parseSpanJSON parses the JSON response from an LLM tagger into spans
func parseSpanJSON(text string) ([]Span, error) {
	text = strings.TrimSpace(text)

	// Remove markdown code blocks if present
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	text = text[startIdx : endIdx+1]

	var resp taggerResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	var spans []Span
	for _, org := range resp.Organizations {
		if org = strings.TrimSpace(org); org != "" {
			spans = append(spans, Span{Type: SpanOrganization, Text: org})
		}
	}
	for _, date := range resp.Dates {
		if date = strings.TrimSpace(date); date != "" {
			spans = append(spans, Span{Type: SpanDate, Text: date})
		}
	}
	for _, amount := range resp.Amounts {
		if amount = strings.TrimSpace(amount); amount != "" {
			spans = append(spans, Span{Type: SpanMoney, Text: amount})
		}
	}
	return spans, nil
}

// firstSpan returns the first span of the given type, or an empty string
func firstSpan(spans []Span, spanType SpanType) string {
	for _, span := range spans {
		if span.Type == spanType {
			return span.Text
		}
	}
	return ""
}
