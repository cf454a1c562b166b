package invoice

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/explorer-hello/ai-invoice-receipt-extractor/internal/category"
	"github.com/explorer-hello/ai-invoice-receipt-extractor/internal/extract"
	"github.com/explorer-hello/ai-invoice-receipt-extractor/internal/ocr"
)

// ErrInvalidInput indicates an upload that is rejected before any
// processing, such as an unsupported file extension
var ErrInvalidInput = errors.New("invalid input")

// defaultListLimit caps a list request that names no limit
const defaultListLimit = 50

// TextAcquirer turns a stored file into one concatenated text blob
type TextAcquirer interface {
	ExtractText(path string, kind ocr.Kind) (string, error)
}

// FieldExtractor turns a text blob into a structured draft
type FieldExtractor interface {
	ExtractFields(text string) extract.Draft
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service orchestrates the upload pipeline: acquisition, extraction,
// categorization, persistence
type Service struct {
	db         DB
	storage    Storage
	acquirer   TextAcquirer
	extractor  FieldExtractor
	timeSource TimeSource
}

// NewService creates a new Service with the default time source
func NewService(db DB, storage Storage, acquirer TextAcquirer, extractor FieldExtractor) *Service {
	return &Service{
		db:         db,
		storage:    storage,
		acquirer:   acquirer,
		extractor:  extractor,
		timeSource: &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with a custom time source for
// testing
func NewServiceWithDeps(db DB, storage Storage, acquirer TextAcquirer, extractor FieldExtractor, timeSource TimeSource) *Service {
	return &Service{
		db:         db,
		storage:    storage,
		acquirer:   acquirer,
		extractor:  extractor,
		timeSource: timeSource,
	}
}

// kindForFilename maps a file extension to an acquisition kind. Any
// extension outside the allowed set is rejected before processing.
func kindForFilename(filename string) (ocr.Kind, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".jpg", ".jpeg":
		return ocr.KindImage, nil
	case ".pdf":
		return ocr.KindPDF, nil
	default:
		return 0, fmt.Errorf("%w: unsupported file type %q, upload PNG, JPG, or PDF", ErrInvalidInput, filepath.Ext(filename))
	}
}

// ProcessUpload stores the file, runs the extraction pipeline, and
// persists the result. The stored file is removed again when the
// pipeline or the insert fails.
func (s *Service) ProcessUpload(filename string, data []byte) (*Invoice, error) {
	kind, err := kindForFilename(filename)
	if err != nil {
		return nil, err
	}

	now := s.timeSource.Now()

	// Timestamp prefix keeps stored names collision-free
	storedName := fmt.Sprintf("%s_%s", now.Format("20060102_150405"), filepath.Base(filename))
	if _, err := s.storage.Save(storedName, data); err != nil {
		return nil, fmt.Errorf("saving upload: %w", err)
	}

	text, err := s.acquirer.ExtractText(s.storage.Path(storedName), kind)
	if err != nil {
		slog.Error("text acquisition failed",
			"file_name", filename,
			"file_size", len(data),
			"error", err,
		)
		s.storage.Delete(storedName)
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	draft := s.extractor.ExtractFields(text)

	inv := &Invoice{
		Vendor:        draft.Vendor,
		Category:      string(category.Categorize(draft.Vendor)),
		InvoiceNumber: draft.InvoiceNumber,
		RawText:       draft.RawText,
		FileName:      storedName,
		ProcessedAt:   now,
	}
	if draft.Date != nil {
		date := NewDate(*draft.Date)
		inv.InvoiceDate = &date
	}
	if draft.Amount != nil {
		inv.Amount = *draft.Amount
	}
	if draft.Tax != nil {
		inv.Tax = *draft.Tax
	}

	if err := s.db.SaveInvoice(inv); err != nil {
		s.storage.Delete(storedName)
		return nil, fmt.Errorf("saving invoice: %w", err)
	}

	return inv, nil
}

// GetInvoice retrieves an invoice by ID
func (s *Service) GetInvoice(id int64) (*Invoice, error) {
	inv, err := s.db.GetInvoice(id)
	if err != nil {
		return nil, fmt.Errorf("getting invoice: %w", err)
	}
	return inv, nil
}

// ListInvoices returns the most recently processed invoices
func (s *Service) ListInvoices(limit, offset int) ([]*Invoice, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	invoices, err := s.db.ListInvoices(limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	return invoices, nil
}

// GetInvoiceFile retrieves the originally uploaded file for an invoice
func (s *Service) GetInvoiceFile(id int64) ([]byte, string, error) {
	inv, err := s.db.GetInvoice(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting invoice: %w", err)
	}

	data, err := s.storage.Get(inv.FileName)
	if err != nil {
		return nil, "", fmt.Errorf("getting invoice file: %w", err)
	}

	return data, contentTypeFor(inv.FileName), nil
}

// CategorySummary returns aggregate spend per category
func (s *Service) CategorySummary() ([]CategoryTotal, error) {
	totals, err := s.db.CategoryTotals()
	if err != nil {
		return nil, fmt.Errorf("summarizing categories: %w", err)
	}
	return totals, nil
}

// contentTypeFor maps a stored filename to a response content type
func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
