package localstorage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStorage implements ports.Storage for the local filesystem.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

// InitJob creates the run directory.
func (s *LocalStorage) InitJob(ctx context.Context, runID string) error {
	path := s.GetJobPath(runID)
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create run directory %s: %w", path, err)
	}
	return nil
}

// SaveInput saves the run input.
func (s *LocalStorage) SaveInput(ctx context.Context, runID string, data []byte) error {
	return s.write(runID, "input.json", data)
}

// SaveResult saves the final run result.
func (s *LocalStorage) SaveResult(ctx context.Context, runID string, data []byte) error {
	return s.write(runID, "result.json", data)
}

// GetJobPath returns the path for a run directory.
func (s *LocalStorage) GetJobPath(runID string) string {
	return filepath.Join(s.BaseDir, "jobs", runID)
}

func (s *LocalStorage) write(runID, name string, data []byte) error {
	path := filepath.Join(s.GetJobPath(runID), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	return nil
}

// Discard implements ports.Storage and records nothing.
type Discard struct{}

func (Discard) InitJob(context.Context, string) error            { return nil }
func (Discard) SaveInput(context.Context, string, []byte) error  { return nil }
func (Discard) SaveResult(context.Context, string, []byte) error { return nil }
func (Discard) GetJobPath(string) string                         { return "" }
