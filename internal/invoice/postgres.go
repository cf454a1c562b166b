package invoice

import (
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormDB implements the DB interface on PostgreSQL through GORM
type GormDB struct {
	db *gorm.DB
}

// NewGormDB connects to PostgreSQL and migrates the invoices table
func NewGormDB(dsn string) (*GormDB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := db.AutoMigrate(&Invoice{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &GormDB{db: db}, nil
}

// SaveInvoice inserts the invoice; the store assigns the ID
func (g *GormDB) SaveInvoice(inv *Invoice) error {
	if err := g.db.Create(inv).Error; err != nil {
		return fmt.Errorf("inserting invoice: %w", err)
	}
	return nil
}

// GetInvoice retrieves an invoice by ID
func (g *GormDB) GetInvoice(id int64) (*Invoice, error) {
	var inv Invoice
	err := g.db.First(&inv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("selecting invoice: %w", err)
	}
	return &inv, nil
}

// ListInvoices returns invoices ordered by processing time descending
func (g *GormDB) ListInvoices(limit, offset int) ([]*Invoice, error) {
	invoices := make([]*Invoice, 0)
	err := g.db.
		Order("processed_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("selecting invoices: %w", err)
	}
	return invoices, nil
}

// CategoryTotals returns aggregate spend per category, largest first
func (g *GormDB) CategoryTotals() ([]CategoryTotal, error) {
	totals := make([]CategoryTotal, 0)
	err := g.db.
		Model(&Invoice{}).
		Select("category, SUM(amount) AS total, COUNT(*) AS count").
		Group("category").
		Order("total DESC").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating categories: %w", err)
	}
	return totals, nil
}

// Close closes the underlying connection pool
func (g *GormDB) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
