package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalDisk stores files under a root directory.
type LocalDisk struct {
	root string
}

// NewLocalDisk returns a disk rooted at root. A relative root is resolved
// against the working directory.
func NewLocalDisk(root string) (*LocalDisk, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage/local: resolve %s: %w", root, err)
	}
	return &LocalDisk{root: abs}, nil
}

func (d *LocalDisk) abs(path string) (string, error) {
	full := filepath.Join(d.root, filepath.FromSlash(path))
	if full != d.root && !strings.HasPrefix(full, d.root+string(filepath.Separator)) {
		return "", fmt.Errorf("storage/local: path %q escapes the disk root", path)
	}
	return full, nil
}

// Put writes through a temp file and renames it into place so readers never
// see a partial file.
func (d *LocalDisk) Put(_ context.Context, path string, r io.Reader) error {
	full, err := d.abs(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("storage/local: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".put-*")
	if err != nil {
		return fmt.Errorf("storage/local: create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("storage/local: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage/local: write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("storage/local: rename %s: %w", path, err)
	}
	return nil
}

func (d *LocalDisk) Get(_ context.Context, path string) ([]byte, error) {
	full, err := d.abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("storage/local: get %s: %w", path, err)
	}
	return data, nil
}

func (d *LocalDisk) Exists(_ context.Context, path string) (bool, error) {
	full, err := d.abs(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("storage/local: stat %s: %w", path, err)
	}
}

func (d *LocalDisk) Files(_ context.Context, directory string) ([]string, error) {
	absDir, err := d.abs(directory)
	if err != nil {
		return nil, err
	}

	out := []string{}
	err = filepath.WalkDir(absDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == absDir {
				return filepath.SkipDir
			}
			return err
		}
		if !entry.IsDir() && !strings.HasPrefix(entry.Name(), ".put-") {
			rel, _ := filepath.Rel(d.root, path)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage/local: files %s: %w", directory, err)
	}
	sort.Strings(out)
	return out, nil
}

func (d *LocalDisk) Delete(_ context.Context, path string) error {
	full, err := d.abs(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage/local: delete %s: %w", path, err)
	}
	return nil
}

func (d *LocalDisk) URL(path string) string {
	return "file://" + filepath.ToSlash(filepath.Join(d.root, filepath.FromSlash(path)))
}
