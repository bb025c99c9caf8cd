// Package storage writes files to a named disk.
//
// Two drivers are available:
//   - "local": a directory on the local filesystem (default)
//   - "s3": S3-compatible object storage (AWS S3, MinIO, R2)
//
// Ledger exports go through the default disk:
//
//	disks, _ := storage.FromConfig(ctx)
//	disk, _ := disks.Default()
//	disk.Put(ctx, "ledger/20260501T090000Z.jsonl", r)
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/shashiranjanraj/vendo/config"
	"github.com/shashiranjanraj/vendo/pkg/logger"
)

// ErrNotFound is returned by Get when no file exists at path.
var ErrNotFound = errors.New("storage: file not found")

// Disk is the filesystem driver interface. Paths are slash separated and
// relative to the disk root.
type Disk interface {
	// Put writes r to path, replacing any existing file.
	Put(ctx context.Context, path string, r io.Reader) error

	// Get returns the full content of the file at path.
	Get(ctx context.Context, path string) ([]byte, error)

	Exists(ctx context.Context, path string) (bool, error)

	// Files lists every file under directory, recursively, sorted.
	Files(ctx context.Context, directory string) ([]string, error)

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(ctx context.Context, path string) error

	// URL returns the location of path, for logs and CLI output.
	URL(path string) string
}

// Manager holds the configured disks.
type Manager struct {
	mu          sync.RWMutex
	disks       map[string]Disk
	defaultDisk string
}

func NewManager(defaultDisk string) *Manager {
	return &Manager{disks: map[string]Disk{}, defaultDisk: defaultDisk}
}

// FromConfig boots the local disk under STORAGE_LOCAL_ROOT and, when
// S3_BUCKET is set, the s3 disk. STORAGE_DISK picks the default.
func FromConfig(ctx context.Context) (*Manager, error) {
	m := NewManager(config.StorageDefault())

	local, err := NewLocalDisk(config.StorageLocalRoot())
	if err != nil {
		return nil, err
	}
	m.Register("local", local)

	if config.StorageS3Bucket() != "" {
		d, err := NewS3Disk(ctx, S3Config{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
		})
		if err != nil {
			logger.Warn("storage: s3 disk disabled", "err", err)
		} else {
			m.Register("s3", d)
		}
	}

	return m, nil
}

// Register adds or replaces a disk.
func (m *Manager) Register(name string, d Disk) {
	m.mu.Lock()
	m.disks[name] = d
	m.mu.Unlock()
}

// Disk returns the named disk.
func (m *Manager) Disk(name string) (Disk, error) {
	m.mu.RLock()
	d, ok := m.disks[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: disk %q is not configured", name)
	}
	return d, nil
}

// Default returns the disk named by STORAGE_DISK.
func (m *Manager) Default() (Disk, error) {
	return m.Disk(m.defaultDisk)
}

// Names lists the registered disks.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.disks))
	for name := range m.disks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
