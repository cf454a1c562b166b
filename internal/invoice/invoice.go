package invoice

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Date is a calendar date that travels as a date-only ISO-8601 string
// ("2006-01-02") on the wire and as a DATE column in the store
type Date struct {
	time.Time
}

// NewDate creates a Date from a point in time, dropping the clock part
func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// MarshalJSON encodes the date as "2006-01-02"
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format("2006-01-02"))
}

// UnmarshalJSON decodes a "2006-01-02" string
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("parsing date %q: %w", s, err)
	}
	d.Time = parsed
	return nil
}

// Value implements driver.Valuer
func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

// Scan implements sql.Scanner
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case nil:
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
}

// GormDataType tells the migrator to use a DATE column
func (Date) GormDataType() string {
	return "date"
}

// Invoice represents one processed upload with its extracted fields
type Invoice struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	Vendor        string    `json:"vendor" gorm:"size:255;not null"`
	InvoiceDate   *Date     `json:"invoice_date"`
	Amount        float64   `json:"amount"`
	Tax           float64   `json:"tax"`
	Category      string    `json:"category" gorm:"size:50"`
	InvoiceNumber *string   `json:"invoice_number" gorm:"size:100"`
	RawText       string    `json:"raw_text" gorm:"type:text"`
	FileName      string    `json:"file_name" gorm:"size:255"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// TableName sets the gorm table name
func (Invoice) TableName() string {
	return "invoices"
}

// CategoryTotal is the aggregate spend for one category
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int64   `json:"count"`
}
