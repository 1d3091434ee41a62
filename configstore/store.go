package configstore

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/gnishant95/forge/errors"
)

// Record is any named configuration record held by a Store
type Record interface {
	Key() string
}

// Store provides durable, name-keyed storage for configuration records.
// All mutations are serialized by a single mutex; a List or Get never
// observes a partially applied mutation. The full record set is persisted
// to a YAML file on every mutation.
type Store[T Record] struct {
	mu      sync.Mutex
	records map[string]T
	path    string
	docKey  string // top-level key in the persisted YAML document

	// last serialized state, used by the watcher to ignore our own writes
	lastSaved []byte
}

// NewStore creates a store backed by the YAML file at path. docKey is the
// top-level sequence key in the file (e.g. "routes", "sources"). An
// existing file is loaded; a missing file starts the store empty.
func NewStore[T Record](path, docKey string) (*Store[T], error) {
	s := &Store[T]{
		records: make(map[string]T),
		path:    path,
		docKey:  docKey,
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.WrapFatal(err, "Store", "NewStore", "load "+path)
	}

	return s, nil
}

// Path returns the backing file path
func (s *Store[T]) Path() string { return s.path }

// List returns all records sorted by key. The returned slice is a copy.
func (s *Store[T]) List() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get returns the record stored under name
func (s *Store[T]) Get(name string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[name]
	return rec, ok
}

// Count returns the number of stored records
func (s *Store[T]) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Upsert inserts or fully replaces the record stored under its key and
// persists the result. It returns the previous record if one existed.
// On a persistence failure the in-memory state is rolled back, so a
// failed upsert leaves no partial state.
func (s *Store[T]) Upsert(rec T) (prev T, existed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rec.Key()
	prev, existed = s.records[key]
	s.records[key] = rec

	if err := s.saveLocked(); err != nil {
		if existed {
			s.records[key] = prev
		} else {
			delete(s.records, key)
		}
		var zero T
		return zero, false, errors.WrapTransient(err, "Store", "Upsert", "persist "+s.path)
	}

	return prev, existed, nil
}

// Delete removes the record stored under name and persists the result.
// Deleting an unknown name returns ErrNotFound without touching the file.
func (s *Store[T]) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.records[name]
	if !ok {
		return errors.WrapNotFound(nil, "Store", "Delete", name)
	}
	delete(s.records, name)

	if err := s.saveLocked(); err != nil {
		s.records[name] = prev
		return errors.WrapTransient(err, "Store", "Delete", "persist "+s.path)
	}

	return nil
}

// snapshotLocked copies the record set sorted by key. Caller holds mu.
func (s *Store[T]) snapshotLocked() []T {
	out := make([]T, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// load replaces the in-memory record set from the backing file
func (s *Store[T]) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	doc := map[string][]T{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]T, len(doc[s.docKey]))
	for _, rec := range doc[s.docKey] {
		s.records[rec.Key()] = rec
	}
	s.lastSaved = data

	return nil
}

// saveLocked writes the full record set to the backing file. Caller holds mu.
func (s *Store[T]) saveLocked() error {
	doc := map[string][]T{s.docKey: s.snapshotLocked()}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return err
	}

	s.lastSaved = data
	return nil
}

// changedSince reports whether data differs from the last state this
// store wrote to disk. Used by Watch to skip events for our own saves.
func (s *Store[T]) changedSince(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !bytes.Equal(data, s.lastSaved)
}
