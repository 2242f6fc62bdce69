package catalog

import (
	"strings"

	"valvefinder/internal"
	"valvefinder/internal/util"
)

// Index maps every identifier a backend valve can be addressed by to the
// valve. Tiers are checked in order (id, ref, alternate keys); within a tier
// the later record in the source list wins.
type Index struct {
	ByID  map[string]internal.BackendValve
	ByRef map[string]internal.BackendValve
	ByAlt map[string]internal.BackendValve
}

func BuildIndex(valves []internal.BackendValve) *Index {
	idx := &Index{
		ByID:  map[string]internal.BackendValve{},
		ByRef: map[string]internal.BackendValve{},
		ByAlt: map[string]internal.BackendValve{},
	}

	for _, v := range valves {
		if id := strings.TrimSpace(v.ID); id != "" {
			idx.ByID[id] = v
		}
		if ref := strings.TrimSpace(util.Deref(v.Ref)); ref != "" {
			idx.ByRef[ref] = v
		}

		addAlt := func(code *string) {
			if code == nil {
				return
			}
			if k := strings.TrimSpace(*code); k != "" {
				idx.ByAlt[k] = v
			}
		}
		addAlt(v.Valve)
		addAlt(v.SerialNumber)
	}

	return idx
}

// Lookup returns the valve addressed by key, probing id, ref and alternate keys.
func (idx *Index) Lookup(key string) (internal.BackendValve, bool) {
	key = strings.TrimSpace(key)
	if idx == nil || key == "" {
		return internal.BackendValve{}, false
	}
	if v, ok := idx.ByID[key]; ok {
		return v, true
	}
	if v, ok := idx.ByRef[key]; ok {
		return v, true
	}
	v, ok := idx.ByAlt[key]
	return v, ok
}
