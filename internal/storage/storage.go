// Package storage manages uploaded book text files on the local filesystem.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Storage persists uploaded documents under a base directory, addressed by
// key. Keys are sanitized so a crafted filename cannot escape the base path.
// Thread-safe for concurrent operations.
type Storage interface {
	Save(key string, data []byte) error
	Read(key string) ([]byte, error)
	Delete(key string) error
	Exists(key string) bool
}

// Local stores documents on the local filesystem.
type Local struct {
	basePath string
	mu       sync.RWMutex
}

// NewLocal creates a Local storage rooted at {basePath}/uploads.
func NewLocal(basePath string) (*Local, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	uploadPath := filepath.Join(basePath, "uploads")
	if err := os.MkdirAll(uploadPath, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}

	return &Local{basePath: uploadPath}, nil
}

// Save writes data under key, overwriting any previous content.
func (l *Local) Save(key string, data []byte) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("data cannot be empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Read returns the content stored under key.
func (l *Local) Read(key string) ([]byte, error) {
	path, err := l.path(key)
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no document stored for %s: %w", key, err)
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// Delete removes the content stored under key. Deleting a missing key is
// not an error.
func (l *Local) Delete(key string) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// Exists reports whether content is stored under key.
func (l *Local) Exists(key string) bool {
	path, err := l.path(key)
	if err != nil {
		return false
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	_, statErr := os.Stat(path)
	return statErr == nil
}

// path resolves a key to an absolute file path inside the base directory.
func (l *Local) path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key cannot be empty")
	}
	clean := filepath.Clean(key)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(l.basePath, clean), nil
}
