package invoice

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage defines the interface for durable file storage
type Storage interface {
	// Save saves a file and returns its stored name
	Save(filename string, data []byte) (string, error)

	// Get retrieves a file by stored name
	Get(name string) ([]byte, error)

	// Delete removes a file
	Delete(name string) error

	// Path returns the filesystem path for a stored name, for
	// components that read files directly (the OCR pipeline does)
	Path(name string) string
}

// LocalStorage implements the Storage interface on the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Save saves a file to local storage
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	path := filepath.Join(l.basePath, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return filename, nil
}

// Get retrieves a file from local storage
func (l *LocalStorage) Get(name string) ([]byte, error) {
	data, err := os.ReadFile(l.Path(name))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a file from local storage
func (l *LocalStorage) Delete(name string) error {
	if err := os.Remove(l.Path(name)); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// Path returns the full filesystem path for a stored name
func (l *LocalStorage) Path(name string) string {
	return filepath.Join(l.basePath, name)
}
