package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// unknownVendor is the placeholder returned when no line looks like a
// vendor name
const unknownVendor = "Unknown Vendor"

// dateStrategy pairs a pattern family with the parse layouts attempted
// on its first match
type dateStrategy struct {
	pattern *regexp.Regexp
	layouts []string
}

// dateLayouts are tried in order on the first match of a pattern family:
// month/day/year first, then day-month-year
var dateLayouts = []string{"1/2/2006", "2-1-2006"}

// dateStrategies are evaluated in order. Only the first family with any
// match is considered: a matched-but-unparseable date yields no date at
// all rather than falling through to a later family.
var dateStrategies = []dateStrategy{
	{regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{2,4}`), dateLayouts},
	{regexp.MustCompile(`(?i)\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{2,4}`), dateLayouts},
	{regexp.MustCompile(`(?i)(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{2,4}`), dateLayouts},
}

var (
	amountPattern        = regexp.MustCompile(`\$?\s*\d{1,3}(?:,\d{3})*(?:\.\d{2})?|\d+(?:\.\d{2})?`)
	invoiceNumberPattern = regexp.MustCompile(`(?i)(?:invoice|inv)\.?\s*#?\s*:?\s*([A-Z0-9-]+)`)
)

// heuristicVendor returns the first non-empty line longer than three
// characters that contains no digits. Vendor names sit at the top of most
// invoices; lines with digits are usually addresses, dates, or amounts.
func heuristicVendor(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) <= 3 {
			continue
		}
		if strings.ContainsAny(line, "0123456789") {
			continue
		}
		return line
	}
	return unknownVendor
}

// heuristicDate scans the pattern families in order and parses the first
// match of the first family that matches at all
func heuristicDate(text string) *time.Time {
	for _, strategy := range dateStrategies {
		match := strategy.pattern.FindString(text)
		if match == "" {
			continue
		}
		for _, layout := range strategy.layouts {
			if parsed, err := time.Parse(layout, match); err == nil {
				return &parsed
			}
		}
		// The matching family had no parseable result; later families
		// are not consulted
		return nil
	}
	return nil
}

// heuristicAmount collects every currency-looking number and returns the
// largest. Invoice totals are usually the largest number on the page.
func heuristicAmount(text string) *float64 {
	var best *float64
	for _, match := range amountPattern.FindAllString(text, -1) {
		clean := strings.ReplaceAll(match, "$", "")
		clean = strings.ReplaceAll(clean, ",", "")
		clean = strings.TrimSpace(clean)

		value, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			continue
		}
		if best == nil || value > *best {
			best = &value
		}
	}
	return best
}

// heuristicInvoiceNumber captures the alphanumeric run following an
// "invoice"/"inv" token
func heuristicInvoiceNumber(text string) *string {
	match := invoiceNumberPattern.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	return &match[1]
}
