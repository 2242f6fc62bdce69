package catalog

import (
	"fmt"
	"strings"

	"valvefinder/internal"
	"valvefinder/internal/util"
)

// Placeholder values for records synthesized from bare file names.
const (
	PlaceholderKind       = "Tipo no especificado"
	PlaceholderLocation   = "Ubicación no especificada"
	PlaceholderStatus     = "Estado no especificado"
	PlaceholderLastReview = "Sin registro"
	PlaceholderNotes      = "Ficha generada automáticamente para demostración."
)

// Sources is one joined snapshot of every catalog input.
type Sources struct {
	Images        []internal.ImageEntry
	Backend       []internal.BackendValve
	Metadata      []internal.ValveRecord
	BankOverrides map[string]internal.BankOverride
	// Files are raw image file names discovered when no structured source answered.
	Files []string
}

// Merge combines the sources into one catalog. Precedence:
//  1. a non-empty image list is the base set, enriched from the backend;
//  2. otherwise the backend list is the base set;
//  3. otherwise the static metadata list;
//  4. otherwise placeholders synthesized from Files.
//
// Merge is pure: identical Sources always produce identical output.
func Merge(src Sources) []internal.ValveRecord {
	switch {
	case len(src.Images) > 0:
		idx := BuildIndex(src.Backend)
		out := make([]internal.ValveRecord, 0, len(src.Images))
		for _, img := range src.Images {
			base, ok := recordFromImage(img)
			if !ok {
				continue
			}
			base = applyOverride(base, src.BankOverrides)
			b, found := idx.Lookup(base.ID)
			if !found {
				b, found = idx.Lookup(base.Ref)
			}
			if found {
				base = MergeDetail(base, b)
			}
			out = append(out, base)
		}
		return dedupeByID(out)
	case len(src.Backend) > 0:
		out := make([]internal.ValveRecord, 0, len(src.Backend))
		for _, b := range src.Backend {
			if r, ok := RecordFromBackend(b); ok {
				out = append(out, r)
			}
		}
		return dedupeByID(ApplyBankOverrides(out, src.BankOverrides))
	case len(src.Metadata) > 0:
		out := make([]internal.ValveRecord, 0, len(src.Metadata))
		for _, r := range src.Metadata {
			if r, ok := normalizeRecord(r); ok {
				out = append(out, r)
			}
		}
		return dedupeByID(ApplyBankOverrides(out, src.BankOverrides))
	default:
		return BuildFallback(src.Files)
	}
}

// MergeDetail lays a backend record over base. Keys stay those of base so
// the result can replace base in the store. Field precedence:
//
//	ImageURL                      base; backend symbol when base has none
//	Name                          backend valvula, then backend nombre, then base
//	Location, Bank, Quantity,
//	SerialNumber, DatasheetURL,
//	SymbolURL                     backend when present, else base
//	ID, Ref, Notes and the rest   base
func MergeDetail(base internal.ValveRecord, b internal.BackendValve) internal.ValveRecord {
	out := base
	if out.ImageURL == "" {
		out.ImageURL = util.Deref(b.SymbolURL)
	}
	if name := util.FirstNonEmpty(util.Deref(b.Valve), util.Deref(b.Name)); name != "" {
		out.Name = strings.TrimSpace(name)
	}
	if len(b.Location) > 0 {
		out.Location = append(internal.Locations(nil), b.Location...)
	}
	if bank := CanonicalBank(util.Deref(b.Bank)); bank != "" {
		out.Bank = bank
	}
	if b.Quantity != nil {
		out.Quantity = util.IntPtr(*b.Quantity)
	}
	overwrite(&out.SerialNumber, b.SerialNumber)
	overwrite(&out.DatasheetURL, b.DatasheetURL)
	overwrite(&out.SymbolURL, b.SymbolURL)
	return out
}

// ApplyBankOverrides returns a copy of records with banks.json entries
// applied, keyed by ref then id.
func ApplyBankOverrides(records []internal.ValveRecord, overrides map[string]internal.BankOverride) []internal.ValveRecord {
	out := make([]internal.ValveRecord, 0, len(records))
	for _, r := range records {
		out = append(out, applyOverride(r, overrides))
	}
	return out
}

func applyOverride(r internal.ValveRecord, overrides map[string]internal.BankOverride) internal.ValveRecord {
	if len(overrides) == 0 {
		return r
	}
	o, ok := overrides[strings.TrimSpace(r.Key())]
	if !ok {
		return r
	}
	if bank := CanonicalBank(o.Bank); bank != "" {
		r.Bank = bank
	}
	if len(o.Location) > 0 {
		r.Location = append(internal.Locations(nil), o.Location...)
	}
	return r
}

// RecordFromBackend turns a backend valve into a catalog record. The ref is
// the most stable display key available: serial number, then the valvula
// name, then the id.
func RecordFromBackend(b internal.BackendValve) (internal.ValveRecord, bool) {
	id := strings.TrimSpace(b.ID)
	if id == "" {
		return internal.ValveRecord{}, false
	}
	r := MergeDetail(internal.ValveRecord{ID: id}, b)
	r.Ref = strings.TrimSpace(util.FirstNonEmpty(util.Deref(b.SerialNumber), util.Deref(b.Valve), id))
	if r.Name == "" {
		r.Name = id
	}
	return r, true
}

func recordFromImage(img internal.ImageEntry) (internal.ValveRecord, bool) {
	id := strings.TrimSpace(img.ID)
	ref := strings.TrimSpace(img.Ref)
	if id == "" {
		id = ref
	}
	if id == "" {
		return internal.ValveRecord{}, false
	}
	if ref == "" {
		ref = id
	}
	name := strings.TrimSpace(img.Name)
	if name == "" {
		name = util.TitleFromFilename(id)
	}
	return internal.ValveRecord{ID: id, Ref: ref, Name: name, ImageURL: img.ImageURL}, true
}

// normalizeRecord enforces the store invariants: a non-empty id (derived
// from ref when missing), a non-empty name and a bank that is either a
// vocabulary tag or empty.
func normalizeRecord(r internal.ValveRecord) (internal.ValveRecord, bool) {
	if strings.TrimSpace(r.ID) == "" {
		if strings.TrimSpace(r.Ref) == "" {
			return internal.ValveRecord{}, false
		}
		r.ID = strings.TrimSpace(r.Ref)
	}
	if strings.TrimSpace(r.Name) == "" {
		r.Name = r.ID
	}
	r.Bank = CanonicalBank(r.Bank)
	return r, true
}

// BuildFallback synthesizes placeholder records from raw file names. Ids are
// slugs of the base name, suffixed -1, -2... on collision.
func BuildFallback(files []string) []internal.ValveRecord {
	used := map[string]struct{}{}
	out := make([]internal.ValveRecord, 0, len(files))
	for _, file := range files {
		name := util.FileBase(file)
		base := util.StripExt(name)
		if strings.TrimSpace(base) == "" {
			continue
		}
		slug := util.Slug(base)
		id := slug
		for suffix := 1; ; suffix++ {
			if _, taken := used[id]; !taken {
				break
			}
			id = fmt.Sprintf("%s-%d", slug, suffix)
		}
		used[id] = struct{}{}

		out = append(out, internal.ValveRecord{
			ID:         id,
			Ref:        id,
			Name:       util.TitleFromFilename(base),
			ImageURL:   file,
			Location:   internal.Locations{PlaceholderLocation},
			Notes:      PlaceholderNotes,
			Kind:       PlaceholderKind,
			Status:     PlaceholderStatus,
			LastReview: PlaceholderLastReview,
		})
	}
	return out
}

// dedupeByID keeps one record per id: the last one seen, at the position
// where the id first appeared.
func dedupeByID(records []internal.ValveRecord) []internal.ValveRecord {
	pos := map[string]int{}
	out := make([]internal.ValveRecord, 0, len(records))
	for _, r := range records {
		if i, ok := pos[r.ID]; ok {
			out[i] = r
			continue
		}
		pos[r.ID] = len(out)
		out = append(out, r)
	}
	return out
}

func overwrite(dst *string, src *string) {
	if src == nil {
		return
	}
	if v := strings.TrimSpace(*src); v != "" {
		*dst = v
	}
}
