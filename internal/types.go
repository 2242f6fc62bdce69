package internal

import (
	"encoding/json"
	"strings"
)

// Locations holds the raw location of a valve. Sources send either a single
// string or a list of strings; both decode into a list.
type Locations []string

func (l *Locations) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		single = strings.TrimSpace(single)
		if single == "" {
			*l = nil
			return nil
		}
		*l = Locations{single}
		return nil
	}
	var list []any
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	out := make(Locations, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	*l = out
	return nil
}

func (l Locations) String() string {
	return strings.Join(l, ", ")
}

// ValveRecord is one catalog entity.
type ValveRecord struct {
	ID           string    `json:"id"`
	Ref          string    `json:"ref,omitempty"`
	Name         string    `json:"nombre"`
	ImageURL     string    `json:"imagen,omitempty"`
	Location     Locations `json:"ubicacion,omitempty"`
	Bank         string    `json:"banco,omitempty"`
	Quantity     *int      `json:"cantidad,omitempty"`
	SerialNumber string    `json:"numero_serie,omitempty"`
	DatasheetURL string    `json:"ficha_tecnica,omitempty"`
	SymbolURL    string    `json:"simbolo,omitempty"`
	Notes        string    `json:"notas,omitempty"`

	Kind       string `json:"tipo,omitempty"`
	Status     string `json:"estado,omitempty"`
	LastReview string `json:"ultima_revision,omitempty"`
}

// Key returns the external-facing key of the record: its ref, or its id.
func (r ValveRecord) Key() string {
	if r.Ref != "" {
		return r.Ref
	}
	return r.ID
}

// ImageEntry is the normalized shape of any image discovery source.
type ImageEntry struct {
	ID       string
	Ref      string
	ImageURL string
	Name     string
}

// BackendValve is a valve as served by the backend (/valves and /valves/{id})
// or read back from the local cache.
type BackendValve struct {
	ID           string
	Ref          *string
	Valve        *string
	Name         *string
	Quantity     *int
	Location     Locations
	SerialNumber *string
	DatasheetURL *string
	SymbolURL    *string
	Bank         *string
}

// BankOverride is one entry of the optional banks.json mapping.
type BankOverride struct {
	Bank     string
	Location Locations
}

// ScanRow is one logged code lookup.
type ScanRow struct {
	ID        int
	CodeText  string
	CodeType  string
	MatchedID *string
	CreatedAt string
}
