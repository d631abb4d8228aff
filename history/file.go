package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/giygas/pediatric-drug-calculator/entities"
)

// FileStore keeps the log in a JSON object file keyed like browser local
// storage: {"recentCalculations": "[...]"}. Other keys in the file are preserved.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path. The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Prepend(ctx context.Context, rec entities.CalculationRecord, limit int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kv, err := s.readAll()
	if err != nil {
		return err
	}
	records, err := decodeRecords(kv[StorageKey])
	if err != nil {
		// a corrupt entry is replaced rather than blocking new writes
		records = nil
	}

	raw, err := json.Marshal(prepend(records, rec, limit))
	if err != nil {
		return fmt.Errorf("failed to encode calculations: %w", err)
	}
	kv[StorageKey] = string(raw)
	return s.writeAll(kv)
}

func (s *FileStore) Load(ctx context.Context) ([]entities.CalculationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kv, err := s.readAll()
	if err != nil {
		return nil, err
	}
	return decodeRecords(kv[StorageKey])
}

func decodeRecords(raw string) ([]entities.CalculationRecord, error) {
	if raw == "" {
		return []entities.CalculationRecord{}, nil
	}
	var records []entities.CalculationRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", StorageKey, err)
	}
	return records, nil
}

func (s *FileStore) readAll() (map[string]string, error) {
	kv := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return kv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return kv, nil
	}
	if err := json.Unmarshal(data, &kv); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return kv, nil
}

// writeAll replaces the file atomically via a temp file in the same directory
func (s *FileStore) writeAll(kv map[string]string) error {
	data, err := json.MarshalIndent(kv, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
