package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"mpt-command-center/internal/domain"
)

// DocumentStore is an in-memory implementation of app.DocumentStore. Documents
// are kept as encoded JSON so callers never share mutable state with the store.
type DocumentStore struct {
	mu    sync.RWMutex
	colls map[string]map[string]json.RawMessage
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{colls: make(map[string]map[string]json.RawMessage)}
}

func (s *DocumentStore) Put(_ context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, ok := s.colls[collection]
	if !ok {
		docs = make(map[string]json.RawMessage)
		s.colls[collection] = docs
	}
	docs[id] = raw
	return nil
}

func (s *DocumentStore) Get(_ context.Context, collection, id string, out any) error {
	s.mu.RLock()
	raw, ok := s.colls[collection][id]
	s.mu.RUnlock()
	if !ok {
		return domain.ErrNotFound
	}
	return json.Unmarshal(raw, out)
}

func (s *DocumentStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.colls[collection][id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.colls[collection], id)
	return nil
}

// Find returns documents whose top-level string fields equal every filter
// value, ordered by ID.
func (s *DocumentStore) Find(_ context.Context, collection string, filter map[string]string) ([]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.colls[collection]))
	for id := range s.colls[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		raw := s.colls[collection][id]
		ok, err := matches(raw, filter)
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		if ok {
			out = append(out, append(json.RawMessage(nil), raw...))
		}
	}
	return out, nil
}

func matches(raw json.RawMessage, filter map[string]string) (bool, error) {
	if len(filter) == 0 {
		return true, nil
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false, err
	}
	for key, want := range filter {
		got, ok := fields[key].(string)
		if !ok || got != want {
			return false, nil
		}
	}
	return true, nil
}
