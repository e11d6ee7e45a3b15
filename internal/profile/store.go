// Package profile persists connection profiles and their last-used working
// paths as a JSON document under the user config directory.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sshdeck/sshdeck/internal/id"
	"github.com/sshdeck/sshdeck/internal/model"
)

const storeFile = "profiles.json"

// Store owns the on-disk profile catalog. All methods are safe for
// concurrent use; every mutation is written through to disk.
type Store struct {
	mu   sync.Mutex
	path string
	data document
}

type document struct {
	Profiles []model.Profile      `json:"profiles"`
	Paths    map[string]PathEntry `json:"paths,omitempty"`
}

// PathEntry holds the persisted working paths for one profile.
type PathEntry struct {
	Local  string `json:"local,omitempty"`
	Remote string `json:"remote,omitempty"`
}

// DefaultDir returns the per-user configuration directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "sshdeck"), nil
}

// Open loads the store from dir, creating an empty document when the file
// does not exist yet.
func Open(dir string) (*Store, error) {
	s := &Store{
		path: filepath.Join(dir, storeFile),
		data: document{Paths: make(map[string]PathEntry)},
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if s.data.Paths == nil {
		s.data.Paths = make(map[string]PathEntry)
	}
	return s, nil
}

// Profiles returns the catalog in stored order.
func (s *Store) Profiles() []model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	dup := make([]model.Profile, len(s.data.Profiles))
	copy(dup, s.data.Profiles)
	return dup
}

// Get looks a profile up by id.
func (s *Store) Get(profileID string) (model.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.data.Profiles {
		if p.ID == profileID {
			return p, true
		}
	}
	return model.Profile{}, false
}

// Save inserts or updates a profile, assigning an id when missing, and
// writes the store through to disk.
func (s *Store) Save(p model.Profile) (model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = id.New()
	}
	replaced := false
	for i, existing := range s.data.Profiles {
		if existing.ID == p.ID {
			s.data.Profiles[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		s.data.Profiles = append(s.data.Profiles, p)
	}
	if err := s.flush(); err != nil {
		return p, err
	}
	return p, nil
}

// Remove deletes a profile and its persisted paths. Unknown ids are no-ops.
func (s *Store) Remove(profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.data.Profiles[:0]
	for _, p := range s.data.Profiles {
		if p.ID != profileID {
			kept = append(kept, p)
		}
	}
	s.data.Profiles = kept
	delete(s.data.Paths, profileID)
	return s.flush()
}

// SavePath persists one working path for the profile.
func (s *Store) SavePath(profileID string, kind model.PathKind, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.data.Paths[profileID]
	switch kind {
	case model.PathLocal:
		entry.Local = path
	case model.PathRemote:
		entry.Remote = path
	default:
		return fmt.Errorf("unknown path kind %q", kind)
	}
	s.data.Paths[profileID] = entry
	return s.flush()
}

// Paths returns the persisted paths for the profile, zero-valued when none
// were saved.
func (s *Store) Paths(profileID string) PathEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Paths[profileID]
}

func (s *Store) flush() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o600)
}
