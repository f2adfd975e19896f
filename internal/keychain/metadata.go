package keychain

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SecretMetadata tracks when a secret was written and rotated. The vault
// itself is never consulted for it.
type SecretMetadata struct {
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	LastRotated time.Time `json:"last_rotated,omitempty"`
}

// MetadataStore persists secret metadata, keyed by account, to a JSON file.
type MetadataStore struct {
	mu       sync.RWMutex
	path     string
	metadata map[string]*SecretMetadata
}

// NewMetadataStore loads or creates a metadata file.
func NewMetadataStore(path string) (*MetadataStore, error) {
	ms := &MetadataStore{
		path:     path,
		metadata: make(map[string]*SecretMetadata),
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(data, &ms.metadata); jsonErr != nil {
			slog.Warn("corrupt metadata file, starting fresh", "path", path, "error", jsonErr)
			ms.metadata = make(map[string]*SecretMetadata)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("reading metadata: %w", err)
	}

	return ms, nil
}

// Get returns a copy of the metadata for an account, or nil if not tracked.
func (ms *MetadataStore) Get(account string) *SecretMetadata {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	m, ok := ms.metadata[account]
	if !ok {
		return nil
	}
	cp := *m
	return &cp
}

// Touch records a write for account, setting CreatedAt on first sight.
func (ms *MetadataStore) Touch(account string, now time.Time, rotated bool) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	m, ok := ms.metadata[account]
	if !ok {
		m = &SecretMetadata{CreatedAt: now}
		ms.metadata[account] = m
	}
	m.UpdatedAt = now
	if rotated {
		m.LastRotated = now
	}
	return ms.save()
}

// Delete removes metadata for an account.
func (ms *MetadataStore) Delete(account string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.metadata, account)
	return ms.save()
}

// Clear removes all metadata.
func (ms *MetadataStore) Clear() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	clear(ms.metadata)
	return ms.save()
}

func (ms *MetadataStore) save() error {
	data, err := json.MarshalIndent(ms.metadata, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(ms.path), 0700); err != nil {
		return err
	}
	tmpPath := ms.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, ms.path)
}
