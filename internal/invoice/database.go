package invoice

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const invoiceBucket = "invoices"

// ErrNotFound indicates the requested invoice does not exist
var ErrNotFound = errors.New("invoice not found")

// DB defines the interface for the persistence gateway
type DB interface {
	// SaveInvoice inserts the invoice and assigns its ID
	SaveInvoice(inv *Invoice) error

	// GetInvoice retrieves an invoice by ID
	GetInvoice(id int64) (*Invoice, error)

	// ListInvoices returns up to limit invoices, skipping the first
	// offset, ordered by processing time descending
	ListInvoices(limit, offset int) ([]*Invoice, error)

	// CategoryTotals returns aggregate spend per category
	CategoryTotals() ([]CategoryTotal, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(invoiceBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// itob encodes an id as a sortable big-endian key
func itob(id int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

// SaveInvoice inserts the invoice, assigning the next sequence number
// as its ID
func (b *BoltDB) SaveInvoice(inv *Invoice) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(invoiceBucket))
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("assigning invoice id: %w", err)
		}
		inv.ID = int64(seq)

		data, err := json.Marshal(inv)
		if err != nil {
			return fmt.Errorf("marshaling invoice: %w", err)
		}
		return bucket.Put(itob(inv.ID), data)
	})
}

// GetInvoice retrieves an invoice by ID
func (b *BoltDB) GetInvoice(id int64) (*Invoice, error) {
	var inv *Invoice
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(invoiceBucket))
		data := bucket.Get(itob(id))
		if data == nil {
			return fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return json.Unmarshal(data, &inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// ListInvoices returns invoices ordered by processing time descending
func (b *BoltDB) ListInvoices(limit, offset int) ([]*Invoice, error) {
	all := make([]*Invoice, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(invoiceBucket))
		return bucket.ForEach(func(k, v []byte) error {
			var inv Invoice
			if err := json.Unmarshal(v, &inv); err != nil {
				return fmt.Errorf("unmarshaling invoice: %w", err)
			}
			all = append(all, &inv)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	// Newest first; equal timestamps tie-break on ID so paging through
	// offset windows never reorders rows between calls
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].ProcessedAt.Equal(all[j].ProcessedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].ProcessedAt.After(all[j].ProcessedAt)
	})

	if offset >= len(all) {
		return []*Invoice{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// CategoryTotals returns aggregate spend per category, largest first
func (b *BoltDB) CategoryTotals() ([]CategoryTotal, error) {
	byCategory := make(map[string]*CategoryTotal)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(invoiceBucket))
		return bucket.ForEach(func(k, v []byte) error {
			var inv Invoice
			if err := json.Unmarshal(v, &inv); err != nil {
				return fmt.Errorf("unmarshaling invoice: %w", err)
			}
			total, ok := byCategory[inv.Category]
			if !ok {
				total = &CategoryTotal{Category: inv.Category}
				byCategory[inv.Category] = total
			}
			total.Total += inv.Amount
			total.Count++
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	totals := make([]CategoryTotal, 0, len(byCategory))
	for _, total := range byCategory {
		totals = append(totals, *total)
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Total > totals[j].Total
	})
	return totals, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
