package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// CSVTable stores rows in <dir>/<name>.csv using the rows' csv struct tags.
type CSVTable[T Record] struct {
	name string
	path string
}

func NewCSVTable[T Record](dir, name string) *CSVTable[T] {
	return &CSVTable[T]{
		name: name,
		path: filepath.Join(dir, name+".csv"),
	}
}

func (t *CSVTable[T]) Name() string {
	return t.name
}

// Path returns the file backing the table.
func (t *CSVTable[T]) Path() string {
	return t.path
}

func (t *CSVTable[T]) Exists(_ context.Context) (bool, error) {
	_, err := os.Stat(t.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", t.path, err)
}

func (t *CSVTable[T]) CreateWithHeader(_ context.Context) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", t.path, err)
	}

	file, err := os.OpenFile(t.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", t.path, err)
	}
	defer file.Close()

	// An empty slice marshals to the header line only.
	if err := gocsv.MarshalFile(&[]T{}, file); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", t.path, err)
	}

	return file.Sync()
}

func (t *CSVTable[T]) Append(_ context.Context, rows []T) error {
	file, err := os.OpenFile(t.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", t.path, err)
	}
	defer file.Close()

	if err := gocsv.MarshalWithoutHeaders(&rows, file); err != nil {
		return fmt.Errorf("failed to append to %s: %w", t.path, err)
	}

	return file.Sync()
}

func (t *CSVTable[T]) ReadAll(_ context.Context) ([]T, error) {
	file, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", t.path, err)
	}
	defer file.Close()

	rows := make([]T, 0)
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return rows, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", t.path, err)
	}

	return rows, nil
}
