package extract

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// mockTagger is a mock implementation of Tagger
type mockTagger struct {
	spans  []Span
	tagErr error
	calls  int
}

func (m *mockTagger) TagEntities(text string) ([]Span, error) {
	m.calls++
	if m.tagErr != nil {
		return nil, m.tagErr
	}
	return m.spans, nil
}

func (m *mockTagger) Close() error {
	return nil
}

var _ = Describe("Extractor", func() {
	var (
		tagger    *mockTagger
		extractor *Extractor
		text      string
		draft     Draft
	)

	JustBeforeEach(func() {
		draft = extractor.ExtractFields(text)
	})

	When("no tagger is configured", func() {
		BeforeEach(func() {
			extractor = NewExtractor(nil)
			text = "Acme Supplies\nInvoice #: INV-2024-001\nDate: 03/15/2024\nTotal: $250.00"
		})

		It("extracts every field heuristically", func() {
			Expect(draft.Vendor).To(Equal("Acme Supplies"))
			Expect(draft.Date).NotTo(BeNil())
			Expect(draft.Date.Year()).To(Equal(2024))
			Expect(draft.Amount).To(HaveValue(Equal(250.00)))
			Expect(draft.InvoiceNumber).To(HaveValue(Equal("INV-2024-001")))
		})

		It("echoes the input text", func() {
			Expect(draft.RawText).To(Equal(text))
		})

		It("leaves tax unset", func() {
			Expect(draft.Tax).To(BeNil())
		})
	})

	When("the text has no recognizable patterns", func() {
		BeforeEach(func() {
			extractor = NewExtractor(nil)
			// Bare digit runs count as amounts, so the fixture must be
			// digit-free as well as short-lined
			text = "zz\n!!"
		})

		It("returns a draft with all optional fields unset", func() {
			Expect(draft.Vendor).To(Equal("Unknown Vendor"))
			Expect(draft.Date).To(BeNil())
			Expect(draft.Amount).To(BeNil())
			Expect(draft.Tax).To(BeNil())
			Expect(draft.InvoiceNumber).To(BeNil())
		})

		It("still echoes the input text", func() {
			Expect(draft.RawText).To(Equal(text))
		})
	})

	When("a tagger provides every span type", func() {
		BeforeEach(func() {
			tagger = &mockTagger{spans: []Span{
				{Type: SpanOrganization, Text: "Grand Hotel Ltd"},
				{Type: SpanDate, Text: "12/31/2024"},
				{Type: SpanMoney, Text: "$99.95"},
			}}
			extractor = NewExtractor(tagger)
			text = "Corner Bakery\nTotal: $10.00\nDate: 01/01/2024"
		})

		It("prefers the tagger's spans over the heuristics", func() {
			Expect(draft.Vendor).To(Equal("Grand Hotel Ltd"))
			Expect(*draft.Date).To(Equal(time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)))
			Expect(draft.Amount).To(HaveValue(Equal(99.95)))
		})

		It("calls the tagger once", func() {
			Expect(tagger.calls).To(Equal(1))
		})
	})

	When("the tagger finds only an organization", func() {
		BeforeEach(func() {
			tagger = &mockTagger{spans: []Span{
				{Type: SpanOrganization, Text: "Grand Hotel Ltd"},
			}}
			extractor = NewExtractor(tagger)
			text = "Corner Bakery\nTotal: $310.00\nDate: 01/01/2024"
		})

		It("falls back field by field for the rest", func() {
			Expect(draft.Vendor).To(Equal("Grand Hotel Ltd"))
			Expect(*draft.Date).To(Equal(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
			Expect(draft.Amount).To(HaveValue(Equal(310.00)))
		})
	})

	When("a tagger span does not parse", func() {
		BeforeEach(func() {
			tagger = &mockTagger{spans: []Span{
				{Type: SpanDate, Text: "sometime last spring"},
				{Type: SpanMoney, Text: "a lot"},
			}}
			extractor = NewExtractor(tagger)
			text = "Corner Bakery\nTotal: $310.00\nDate: 01/01/2024"
		})

		It("falls back to scanning the whole text", func() {
			Expect(*draft.Date).To(Equal(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
			Expect(draft.Amount).To(HaveValue(Equal(310.00)))
		})
	})

	When("the tagger fails", func() {
		BeforeEach(func() {
			tagger = &mockTagger{tagErr: errors.New("model unavailable")}
			extractor = NewExtractor(tagger)
			text = "Corner Bakery\nTotal: $10.00"
		})

		It("degrades to the heuristics without erroring", func() {
			Expect(draft.Vendor).To(Equal("Corner Bakery"))
			Expect(draft.Amount).To(HaveValue(Equal(10.00)))
		})
	})
})
