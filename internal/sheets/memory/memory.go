// Package memory provides dataset readers that need no remote service: a
// fixed byte slice such as the embedded sample, or a file on disk.
package memory

import (
	"context"
	"fmt"
	"os"

	ports "salesdash/internal/sheets"
)

var (
	_ ports.DatasetReader = (*Store)(nil)
	_ ports.DatasetReader = (*File)(nil)
)

// Store serves a dataset held in memory.
type Store struct {
	name string
	data []byte
}

func New(name string, data []byte) *Store {
	return &Store{name: name, data: data}
}

// ReadDataset returns the held bytes.
func (s *Store) ReadDataset(_ context.Context) ([]byte, string, error) {
	if len(s.data) == 0 {
		return nil, s.name, fmt.Errorf("dataset %q is empty", s.name)
	}
	return s.data, s.name, nil
}

// File reads a CSV file on every call, so edits to it are picked up on
// the next load. Unchanged content is served from the loader memo.
type File struct {
	path string
}

func NewFromFile(path string) *File {
	return &File{path: path}
}

func (f *File) ReadDataset(ctx context.Context) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, f.path, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, f.path, fmt.Errorf("read %s: %w", f.path, err)
	}
	return data, f.path, nil
}
