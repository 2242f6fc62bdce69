package catalog

import (
	"sync"

	"valvefinder/internal"
)

// Store is the single source of truth for the merged catalog: the ordered
// record list plus an index from every known key (id, and ref when it
// differs) to the record's position.
//
// Only the load flow writes to it; every other component reads.
type Store struct {
	mu      sync.RWMutex
	records []internal.ValveRecord
	keys    map[string]int
	norm    Normalizer
}

func NewStore() *Store {
	return &Store{keys: map[string]int{}, norm: defaultNormalizer}
}

// NewStoreWithNormalizer builds a store whose Find accepts n's wrapper schemes.
func NewStoreWithNormalizer(n Normalizer) *Store {
	s := NewStore()
	s.norm = n
	return s
}

// Load replaces the whole catalog. Each record is normalized first (id falls
// back to ref, name to id); records with neither id nor ref are skipped. Ids
// are indexed before refs so a ref can never shadow another record's id;
// among records sharing an id or a ref, the later one wins.
func (s *Store) Load(records []internal.ValveRecord) {
	list := make([]internal.ValveRecord, 0, len(records))
	ids := make(map[string]int, len(records))
	for _, r := range records {
		r, ok := normalizeRecord(r)
		if !ok {
			continue
		}
		if i, ok := ids[r.ID]; ok {
			list[i] = r
			continue
		}
		ids[r.ID] = len(list)
		list = append(list, r)
	}

	keys := make(map[string]int, len(list)*2)
	for id, i := range ids {
		keys[id] = i
	}
	for i, r := range list {
		if r.Ref == "" || r.Ref == r.ID {
			continue
		}
		if _, isID := ids[r.Ref]; isID {
			continue
		}
		keys[r.Ref] = i
	}

	s.mu.Lock()
	s.records = list
	s.keys = keys
	s.mu.Unlock()
}

// Get returns the record indexed under key.
func (s *Store) Get(key string) (internal.ValveRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.keys[key]
	if !ok {
		return internal.ValveRecord{}, false
	}
	return s.records[i], true
}

// Has reports whether key is indexed.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[key]
	return ok
}

// All returns a copy of the catalog in load order.
func (s *Store) All() []internal.ValveRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]internal.ValveRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Replace swaps in a new version of a record already in the store, keeping
// its position. It reports false when the id is unknown.
func (s *Store) Replace(r internal.ValveRecord) bool {
	r, ok := normalizeRecord(r)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, found := s.keys[r.ID]
	if !found || s.records[i].ID != r.ID {
		return false
	}
	old := s.records[i]
	s.records[i] = r
	if old.Ref != r.Ref && old.Ref != "" && old.Ref != old.ID {
		if j, ok := s.keys[old.Ref]; ok && j == i {
			delete(s.keys, old.Ref)
		}
	}
	if r.Ref != "" && r.Ref != r.ID {
		if j, ok := s.keys[r.Ref]; !ok || s.records[j].ID != r.Ref {
			s.keys[r.Ref] = i
		}
	}
	return true
}

// Find resolves a scanned or typed code to the store key it matches.
func (s *Store) Find(input string) (string, bool) {
	return s.norm.FindValveID(s, input)
}

// Lookup resolves a code and returns the record behind it.
func (s *Store) Lookup(input string) (internal.ValveRecord, bool) {
	key, ok := s.Find(input)
	if !ok {
		return internal.ValveRecord{}, false
	}
	return s.Get(key)
}
