package intercept

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"dupeguard/internal/logging"
)

// PendingOverride describes a blocked duplicate awaiting a user decision. It
// carries everything needed to replay the acquisition if the user chooses to
// proceed anyway. Descriptors survive a daemon restart so a pending prompt is
// never silently lost.
type PendingOverride struct {
	OriginalID      string    `json:"original_id"`
	DisplayName     string    `json:"display_name"`
	SourceLocation  string    `json:"source_location"`
	BlockedByRecord string    `json:"blocked_by_record,omitempty"`
	MatchBasis      string    `json:"match_basis,omitempty"`
	BlockedAt       time.Time `json:"blocked_at"`
}

// DescriptorStore persists pending-override descriptors as a JSON file with
// atomic replace-on-write. With an empty path the store is memory-only.
type DescriptorStore struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]PendingOverride
}

// NewDescriptorStore loads any existing descriptor file at path. A corrupt or
// missing file starts the store empty.
func NewDescriptorStore(path string, logger *slog.Logger) *DescriptorStore {
	logger = logging.NewComponentLogger(logger, "overrides")

	s := &DescriptorStore{
		path:    path,
		logger:  logger,
		entries: make(map[string]PendingOverride),
	}
	if path == "" {
		return s
	}
	if err := s.load(); err != nil {
		logger.Warn("failed to load pending overrides",
			logging.String(logging.FieldEventType, "overrides_load_failed"),
			logging.Error(err),
			logging.String(logging.FieldImpact, "previously blocked items lose their proceed-anyway prompt"))
	}
	return s
}

// Put records a descriptor, replacing any existing one for the same id.
func (s *DescriptorStore) Put(descriptor PendingOverride) error {
	descriptor.OriginalID = strings.TrimSpace(descriptor.OriginalID)
	if descriptor.OriginalID == "" {
		return errors.New("descriptor original id cannot be empty")
	}
	if descriptor.BlockedAt.IsZero() {
		descriptor.BlockedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[descriptor.OriginalID] = descriptor
	return s.save()
}

// Get returns the descriptor for id if one is pending.
func (s *DescriptorStore) Get(id string) (PendingOverride, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	descriptor, found := s.entries[strings.TrimSpace(id)]
	return descriptor, found
}

// Remove consumes the descriptor for id and reports whether it existed.
func (s *DescriptorStore) Remove(id string) (bool, error) {
	id = strings.TrimSpace(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[id]; !exists {
		return false, nil
	}
	delete(s.entries, id)
	return true, s.save()
}

// List returns all pending descriptors, newest blocked first.
func (s *DescriptorStore) List() []PendingOverride {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]PendingOverride, 0, len(s.entries))
	for _, descriptor := range s.entries {
		list = append(list, descriptor)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].BlockedAt.Equal(list[j].BlockedAt) {
			return list[i].OriginalID < list[j].OriginalID
		}
		return list[i].BlockedAt.After(list[j].BlockedAt)
	})
	return list
}

func (s *DescriptorStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read descriptor file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var list []PendingOverride
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parse descriptor file: %w", err)
	}
	s.entries = make(map[string]PendingOverride, len(list))
	for _, descriptor := range list {
		if strings.TrimSpace(descriptor.OriginalID) != "" {
			s.entries[descriptor.OriginalID] = descriptor
		}
	}
	return nil
}

func (s *DescriptorStore) save() error {
	if s.path == "" {
		return nil
	}

	list := make([]PendingOverride, 0, len(s.entries))
	for _, descriptor := range s.entries {
		list = append(list, descriptor)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].BlockedAt.After(list[j].BlockedAt)
	})

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal descriptors: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create descriptor directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
