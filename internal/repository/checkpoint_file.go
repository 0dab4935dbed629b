package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kimyeonkyu7453/SPP/internal/services/forecast"
)

// FileCheckpoints stores one weight snapshot per slot under a directory.
type FileCheckpoints struct {
	dir string
}

var _ forecast.CheckpointStore = (*FileCheckpoints)(nil)

func NewFileCheckpoints(dir string) (*FileCheckpoints, error) {
	if dir == "" {
		dir = "tmp"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint dir: %w", err)
	}
	return &FileCheckpoints{dir: dir}, nil
}

func (f *FileCheckpoints) path(slot string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_").Replace(slot)
	return filepath.Join(f.dir, name+".ckpt.json")
}

// Save writes to a temp file and renames it so a crash never leaves a torn snapshot.
func (f *FileCheckpoints) Save(_ context.Context, slot string, data []byte) error {
	dst := f.path(slot)
	tmp, err := os.CreateTemp(f.dir, ".ckpt-*")
	if err != nil {
		return fmt.Errorf("checkpoint temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("checkpoint write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("checkpoint close: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("checkpoint rename: %w", err)
	}
	return nil
}

func (f *FileCheckpoints) Load(_ context.Context, slot string) ([]byte, error) {
	data, err := os.ReadFile(f.path(slot))
	if errors.Is(err, os.ErrNotExist) {
		return nil, forecast.ErrCheckpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checkpoint read: %w", err)
	}
	return data, nil
}

func (f *FileCheckpoints) Delete(_ context.Context, slot string) error {
	err := os.Remove(f.path(slot))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checkpoint delete: %w", err)
	}
	return nil
}
