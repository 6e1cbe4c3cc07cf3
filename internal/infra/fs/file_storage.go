package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates dir (and parents) if needed.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// WriteFileAtomic writes data next to path and renames it into place,
// so readers never observe a half-written file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// CheckNonEmpty fails (and removes the file) when path is missing or empty.
func CheckNonEmpty(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		os.Remove(path)
		return 0, fmt.Errorf("file %s is empty after rendering", path)
	}
	return info.Size(), nil
}

// Stage collects the outputs of one run in a hidden directory under the
// destination. Nothing becomes visible in the destination until Promote.
type Stage struct {
	dest string
	dir  string
}

func NewStage(dest string) (*Stage, error) {
	if err := EnsureDir(dest); err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp(dest, ".staging-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &Stage{dest: dest, dir: dir}, nil
}

// Path returns where name should be written while staged.
func (s *Stage) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Promote moves every staged file into the destination and returns the
// final paths in directory order.
func (s *Stage) Promote() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list staging directory: %w", err)
	}

	var promoted []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		target := filepath.Join(s.dest, entry.Name())
		if err := os.Rename(filepath.Join(s.dir, entry.Name()), target); err != nil {
			return promoted, fmt.Errorf("failed to promote %s: %w", entry.Name(), err)
		}
		promoted = append(promoted, target)
	}
	return promoted, os.RemoveAll(s.dir)
}

// Discard drops everything staged so far.
func (s *Stage) Discard() error {
	return os.RemoveAll(s.dir)
}

// RemoveStale deletes files from an earlier run that match one of names,
// so a failed run never leaves old charts next to a fresh error page.
func RemoveStale(dir string, names ...string) error {
	for _, name := range names {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale %s: %w", name, err)
		}
	}
	return nil
}
