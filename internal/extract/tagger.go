package extract

// SpanType labels a tagged span of text with a semantic type
type SpanType string

const (
	// SpanOrganization is a business or organization name
	SpanOrganization SpanType = "organization"
	// SpanDate is a calendar date mention
	SpanDate SpanType = "date"
	// SpanMoney is a monetary amount mention
	SpanMoney SpanType = "money"
)

// Span is a piece of document text with a semantic label
type Span struct {
	Type SpanType
	Text string
}

// Tagger defines the interface for entity-tagging engines
type Tagger interface {
	// TagEntities labels spans of the text with semantic types, in
	// document order within each type
	TagEntities(text string) ([]Span, error)
	// Close closes the tagger and releases resources
	Close() error
}

// entityTagPrompt is the shared prompt used by all LLM providers for
// entity tagging
const entityTagPrompt = `You are an entity tagger for invoice and receipt text. Read the document text and list every span of the following types, in the order they appear:

1. **organizations**: business, vendor, or organization names.
2. **dates**: calendar date mentions, exactly as written in the text.
3. **amounts**: monetary amounts, exactly as written (keep currency symbols and separators).

Return ONLY valid JSON in this exact format:
{
  "organizations": ["..."],
  "dates": ["..."],
  "amounts": ["..."]
}

Important:
- Copy spans verbatim from the text, do not normalize or reformat them
- Use an empty array for a type with no spans
- Do not include any text before or after the JSON
- Do not use markdown code blocks`
