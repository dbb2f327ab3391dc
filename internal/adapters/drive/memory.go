package drive

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/bootdrive/internal/core/ports"
)

var _ ports.Drive = (*Memory)(nil)

// Memory is a drive held entirely in memory.
type Memory struct {
	mu    sync.RWMutex
	files map[string]memoryFile
}

type memoryFile struct {
	data    []byte
	modTime time.Time
}

// NewMemory creates an empty in-memory drive.
func NewMemory() *Memory {
	return &Memory{files: make(map[string]memoryFile)}
}

// Put stores data at the path, replacing any previous content.
func (m *Memory) Put(_ context.Context, p string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[domain.NormalizePath(p)] = memoryFile{
		data:    slices.Clone(data),
		modTime: time.Now(),
	}
	return nil
}

// Get returns the content stored at the path.
func (m *Memory) Get(_ context.Context, p string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[domain.NormalizePath(p)]
	if !ok {
		return nil, nil
	}
	return slices.Clone(f.data), nil
}

// Readdir lists the names directly below the directory.
func (m *Memory) Readdir(_ context.Context, p string) ([]string, error) {
	prefix := dirPrefix(p)

	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	for key := range m.files {
		if name, ok := childName(prefix, key); ok {
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Stat returns metadata for a stored file.
func (m *Memory) Stat(_ context.Context, p string) (*ports.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[domain.NormalizePath(p)]
	if !ok {
		return nil, nil
	}
	return &ports.Entry{Size: int64(len(f.data)), ModTime: f.modTime}, nil
}

// dirPrefix returns the normalized directory path with a trailing slash.
func dirPrefix(p string) string {
	p = domain.NormalizePath(p)
	if p == "/" {
		return p
	}
	return p + "/"
}

// childName returns the first path segment of key below prefix.
func childName(prefix, key string) (string, bool) {
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	rest := key[len(prefix):]
	if rest == "" {
		return "", false
	}
	name, _, _ := strings.Cut(rest, "/")
	return name, true
}
