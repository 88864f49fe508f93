package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Sriram-PR/podtags/pkg/models"
	"github.com/Sriram-PR/podtags/pkg/utils"
)

const jsonIndent = "    "

// readJSON decodes a JSON file into v
// A missing file is reported with os.ErrNotExist so callers can treat it as a fresh start
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: reading '%s': %w", utils.ErrStoreLoad, path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: parsing JSON in '%s': %w", utils.ErrStoreLoad, path, err)
	}
	return nil
}

// writeJSON pretty-prints v to path via a temp file + rename so readers never see a partial write
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", jsonIndent)
	if err != nil {
		return fmt.Errorf("%w: encoding JSON for '%s': %w", utils.ErrStoreSave, path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: creating directory '%s': %w", utils.ErrStoreSave, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file in '%s': %w", utils.ErrStoreSave, dir, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: writing '%s': %w", utils.ErrStoreSave, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: closing '%s': %w", utils.ErrStoreSave, tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: chmod '%s': %w", utils.ErrStoreSave, tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: renaming to '%s': %w", utils.ErrStoreSave, path, err)
	}
	return nil
}

// IsNotExist reports whether a Load error only means the backing file does not exist yet
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// stringSet is an insertion-ordered set of strings persisted as a JSON array
type stringSet struct {
	path  string
	mu    sync.RWMutex
	items []string
	index map[string]struct{}
}

func newStringSet(path string) *stringSet {
	return &stringSet{path: path, index: make(map[string]struct{})}
}

func (s *stringSet) load() error {
	var items []string
	err := readJSON(s.path, &items)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = s.items[:0]
	s.index = make(map[string]struct{})
	if err != nil {
		return err
	}
	for _, item := range items {
		s.addLocked(item)
	}
	return nil
}

func (s *stringSet) save() error {
	s.mu.RLock()
	items := make([]string, len(s.items))
	copy(items, s.items)
	s.mu.RUnlock()
	return writeJSON(s.path, items)
}

func (s *stringSet) has(item string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[item]
	return ok
}

func (s *stringSet) add(item string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(item)
}

func (s *stringSet) addLocked(item string) bool {
	if _, ok := s.index[item]; ok {
		return false
	}
	s.index[item] = struct{}{}
	s.items = append(s.items, item)
	return true
}

func (s *stringSet) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *stringSet) list() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// JSONLinkStore persists visited episode links as a JSON array of strings
type JSONLinkStore struct {
	set *stringSet
}

// NewJSONLinkStore creates an empty link store backed by path; call Load to read existing state
func NewJSONLinkStore(path string) *JSONLinkStore {
	return &JSONLinkStore{set: newStringSet(path)}
}

func (s *JSONLinkStore) Load() error                  { return s.set.load() }
func (s *JSONLinkStore) Save() error                  { return s.set.save() }
func (s *JSONLinkStore) IsVisited(link string) bool   { return s.set.has(link) }
func (s *JSONLinkStore) MarkVisited(link string) bool { return s.set.add(link) }
func (s *JSONLinkStore) VisitedCount() int            { return s.set.len() }

// Links returns the visited links in insertion order
func (s *JSONLinkStore) Links() []string { return s.set.list() }

// JSONURIStore persists reported catalog URIs as a JSON array of strings
type JSONURIStore struct {
	set *stringSet
}

// NewJSONURIStore creates an empty URI store backed by path; call Load to read existing state
func NewJSONURIStore(path string) *JSONURIStore {
	return &JSONURIStore{set: newStringSet(path)}
}

func (s *JSONURIStore) Load() error                 { return s.set.load() }
func (s *JSONURIStore) Save() error                 { return s.set.save() }
func (s *JSONURIStore) IsReported(uri string) bool  { return s.set.has(uri) }
func (s *JSONURIStore) Reported() []string          { return s.set.list() }

// AddReported records URIs as surfaced and returns how many were new
func (s *JSONURIStore) AddReported(uris ...string) int {
	added := 0
	for _, uri := range uris {
		if s.set.add(uri) {
			added++
		}
	}
	return added
}

// JSONTagStore persists raw tags as a JSON array of [text, source_url] pairs
type JSONTagStore struct {
	path string
	mu   sync.RWMutex
	tags []models.RawTag
}

// NewJSONTagStore creates an empty tag store backed by path; call Load to read existing state
func NewJSONTagStore(path string) *JSONTagStore {
	return &JSONTagStore{path: path}
}

// Load replaces in-memory tags with the file contents; on error the store is left empty
func (s *JSONTagStore) Load() error {
	var tags []models.RawTag
	err := readJSON(s.path, &tags)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.tags = nil
		return err
	}
	s.tags = tags
	return nil
}

// Save rewrites the backing file with every stored tag
func (s *JSONTagStore) Save() error {
	tags := s.Tags()
	if tags == nil {
		tags = []models.RawTag{} // Always write a JSON array, never null
	}
	return writeJSON(s.path, tags)
}

// AppendTags adds tags to the end of the store
func (s *JSONTagStore) AppendTags(tags ...models.RawTag) {
	s.mu.Lock()
	s.tags = append(s.tags, tags...)
	s.mu.Unlock()
}

// Tags returns a copy of all stored tags
func (s *JSONTagStore) Tags() []models.RawTag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tags == nil {
		return nil
	}
	out := make([]models.RawTag, len(s.tags))
	copy(out, s.tags)
	return out
}

// Compile-time interface checks
var (
	_ LinkStore = (*JSONLinkStore)(nil)
	_ Persister = (*JSONLinkStore)(nil)
	_ TagStore  = (*JSONTagStore)(nil)
	_ Persister = (*JSONTagStore)(nil)
	_ URIStore  = (*JSONURIStore)(nil)
	_ Persister = (*JSONURIStore)(nil)
)
