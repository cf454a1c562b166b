package extract

import (
	"log/slog"
	"strings"
	"time"
)

// Draft is the structured, best-effort result of one extraction run.
// RawText always equals the input text, even when every other field is
// unset.
type Draft struct {
	Vendor        string
	Date          *time.Time
	Amount        *float64
	Tax           *float64
	InvoiceNumber *string
	RawText       string
}

// Extractor turns OCR text into a Draft. It never fails: a field that
// cannot be found is left unset.
type Extractor struct {
	tagger Tagger // nil when no tagger is configured
}

// NewExtractor creates an Extractor. Pass a nil tagger to run on the
// regex heuristics alone.
func NewExtractor(tagger Tagger) *Extractor {
	return &Extractor{tagger: tagger}
}

// ExtractFields parses vendor, date, amount, and invoice number from the
// text. When a tagger is configured its spans are preferred field by
// field, with the heuristics as independent per-field fallbacks.
func (e *Extractor) ExtractFields(text string) Draft {
	draft := Draft{RawText: text}

	var spans []Span
	if e.tagger != nil {
		var err error
		spans, err = e.tagger.TagEntities(text)
		if err != nil {
			slog.Warn("entity tagger failed, falling back to heuristics", "error", err)
			spans = nil
		}
	}

	draft.Vendor = e.vendor(spans, text)
	draft.Date = e.date(spans, text)
	draft.Amount = e.amount(spans, text)
	draft.InvoiceNumber = heuristicInvoiceNumber(text)
	// Tax is never extracted by the current heuristics

	return draft
}

func (e *Extractor) vendor(spans []Span, text string) string {
	if org := strings.TrimSpace(firstSpan(spans, SpanOrganization)); org != "" {
		return org
	}
	return heuristicVendor(text)
}

// date takes the first date span when it parses; an absent or
// unparseable span falls back to scanning the whole text
func (e *Extractor) date(spans []Span, text string) *time.Time {
	if span := firstSpan(spans, SpanDate); span != "" {
		if parsed := heuristicDate(span); parsed != nil {
			return parsed
		}
	}
	return heuristicDate(text)
}

func (e *Extractor) amount(spans []Span, text string) *float64 {
	if span := firstSpan(spans, SpanMoney); span != "" {
		if parsed := heuristicAmount(span); parsed != nil {
			return parsed
		}
	}
	return heuristicAmount(text)
}
