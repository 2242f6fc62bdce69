package catalog

import (
	"context"
	"sync"

	"valvefinder/internal"
)

// DetailSource fetches the backend record of one valve. Implementations
// return ErrNotFound when the backend has no such valve.
type DetailSource interface {
	GetValve(ctx context.Context, id string) (internal.BackendValve, error)
}

// Selection tracks which record the user has selected and applies detail
// enrichment to it. Each Enrich call is tagged with the key it was issued
// for; a response that arrives after the selection moved on is dropped, so a
// slow answer for an old selection never overwrites a newer one.
type Selection struct {
	store  *Store
	detail DetailSource

	mu      sync.Mutex
	current string
	shown   internal.ValveRecord
}

func NewSelection(store *Store, detail DetailSource) *Selection {
	return &Selection{store: store, detail: detail}
}

// Select makes key the current selection and returns the record to show
// until enrichment lands. A key the store does not know still yields a
// minimal record named after the key.
func (s *Selection) Select(key string) internal.ValveRecord {
	base, ok := s.store.Get(key)
	if !ok {
		base = internal.ValveRecord{ID: key, Ref: key, Name: key}
	}
	s.mu.Lock()
	s.current = key
	s.shown = base
	s.mu.Unlock()
	return base
}

// Current returns the selected key and the record on display; the key is
// empty when nothing is selected.
func (s *Selection) Current() (string, internal.ValveRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.shown
}

// Enrich fetches the backend detail for key and merges it over the stored
// record. Fetch failures and misses degrade to the base record. If key is no
// longer selected when the response arrives, nothing is applied and
// ErrStaleSelection is returned.
func (s *Selection) Enrich(ctx context.Context, key string) (internal.ValveRecord, error) {
	base, inStore := s.store.Get(key)
	if !inStore {
		base = internal.ValveRecord{ID: key, Ref: key, Name: key}
	}

	merged := base
	if s.detail != nil {
		b, err := s.detail.GetValve(ctx, base.ID)
		switch {
		case err == nil:
			merged = MergeDetail(base, b)
		case ctx.Err() != nil:
			return base, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != key {
		return merged, ErrStaleSelection
	}
	if inStore {
		s.store.Replace(merged)
	}
	s.shown = merged
	return merged, nil
}
