package newsfeed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// RecordStore persists a list of records as a single JSON array. Each save
// overwrites the previous contents.
type RecordStore struct {
	path string
}

// NewRecordStore creates a record store backed by the file at path. The
// parent directory is created if it doesn't exist.
func NewRecordStore(path string) (*RecordStore, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	return &RecordStore{path: path}, nil
}

// Path returns the backing file.
func (s *RecordStore) Path() string {
	return s.path
}

// Save overwrites the file with records. A nil slice is written as [].
func (s *RecordStore) Save(records []NewsRecord) error {
	if records == nil {
		records = []NewsRecord{}
	}
	return writeJSON(s.path, records)
}

// Load reads the stored records. A missing file yields an empty list.
func (s *RecordStore) Load() ([]NewsRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []NewsRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	var records []NewsRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal records: %w", err)
	}
	if records == nil {
		records = []NewsRecord{}
	}
	return records, nil
}

// TrackedStore persists the set of document links seen on the previous run.
type TrackedStore struct {
	path string
}

// NewTrackedStore creates a tracked-document store backed by path.
func NewTrackedStore(path string) (*TrackedStore, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	return &TrackedStore{path: path}, nil
}

// Load returns the stored links as a set. A missing file is an empty set. A
// corrupt file is also returned as an empty set, together with the error so
// the caller can report it.
func (s *TrackedStore) Load() (map[string]bool, error) {
	set := map[string]bool{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return set, fmt.Errorf("failed to read tracked documents: %w", err)
	}

	var links []string
	if err := json.Unmarshal(data, &links); err != nil {
		return set, fmt.Errorf("failed to unmarshal tracked documents: %w", err)
	}
	for _, link := range links {
		set[link] = true
	}
	return set, nil
}

// Save overwrites the file with links in the given order.
func (s *TrackedStore) Save(links []string) error {
	if links == nil {
		links = []string{}
	}
	return writeJSON(s.path, links)
}

func ensureDir(path string) error {
	// 0700: owner-only access
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	// 0600: owner-only read/write
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
