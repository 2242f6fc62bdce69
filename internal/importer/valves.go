package importer

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"valvefinder/internal"
	"valvefinder/internal/util"
)

var ErrMissingColumns = errors.New("missing required columns")

var requiredColumns = []string{"id", "valvula"}

// headerAliases maps folded spreadsheet headers to the cache column names.
// Older sheets used nombre and serie.
var headerAliases = map[string]string{
	"id":              "id",
	"valvula":         "valvula",
	"nombre":          "valvula",
	"cantidad":        "cantidad",
	"qty":             "cantidad",
	"ubicacion":       "ubicacion",
	"numero_serie":    "numero_serie",
	"numero_de_serie": "numero_serie",
	"serie":           "numero_serie",
	"ficha_tecnica":   "ficha_tecnica",
	"ficha":           "ficha_tecnica",
	"simbolo":         "simbolo",
	"banco":           "banco",
	"bank":            "banco",
}

// valveRow is one spreadsheet or CSV line after header normalization.
type valveRow struct {
	ID           string `csv:"id"`
	Valve        string `csv:"valvula"`
	Quantity     string `csv:"cantidad,omitempty"`
	Location     string `csv:"ubicacion,omitempty"`
	SerialNumber string `csv:"numero_serie,omitempty"`
	DatasheetURL string `csv:"ficha_tecnica,omitempty"`
	SymbolURL    string `csv:"simbolo,omitempty"`
	Bank         string `csv:"banco,omitempty"`
}

// ParseFile picks the parser from the file extension.
func ParseFile(path string) ([]internal.BackendValve, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ParseValvesXLSXFile(path)
	case ".csv":
		return ParseValvesCSVFile(path)
	default:
		return nil, fmt.Errorf("unsupported import file: %s", filepath.Base(path))
	}
}

// canonicalHeader folds a header cell ("Número de serie") into its column
// name ("numero_serie"); unknown headers keep their folded form.
func canonicalHeader(h string) string {
	folded := strings.Join(strings.Fields(util.FoldName(h)), "_")
	if c, ok := headerAliases[folded]; ok {
		return c
	}
	return folded
}

func checkRequired(header []string) error {
	have := map[string]bool{}
	for _, h := range header {
		have[h] = true
	}
	missing := []string{}
	for _, c := range requiredColumns {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

// toValves converts parsed rows. Blank ids are skipped; an id that is not an
// integer fails the whole import with the offending row number. firstRow is
// the sheet row number of rows[0].
func toValves(rows []valveRow, firstRow int) ([]internal.BackendValve, error) {
	out := make([]internal.BackendValve, 0, len(rows))
	for i, r := range rows {
		raw := strings.TrimSpace(r.ID)
		if raw == "" {
			continue
		}
		id, err := parseID(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid id %q", firstRow+i, raw)
		}

		v := internal.BackendValve{
			ID:           id,
			Valve:        optional(r.Valve),
			Quantity:     util.ParseQuantity(r.Quantity),
			SerialNumber: optional(r.SerialNumber),
			DatasheetURL: optional(r.DatasheetURL),
			SymbolURL:    optional(r.SymbolURL),
		}
		if loc := util.NormalizeSpaces(r.Location); loc != "" {
			v.Location = internal.Locations{loc}
		}
		if bank := strings.ToUpper(strings.TrimSpace(r.Bank)); bank != "" {
			v.Bank = &bank
		}
		out = append(out, v)
	}
	return out, nil
}

// parseID accepts "12", "12.0" and spreadsheet floats like "1.2E+05".
func parseID(raw string) (string, error) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return strconv.FormatInt(n, 10), nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", errors.New("not a number")
	}
	return strconv.FormatInt(int64(f), 10), nil
}

func optional(s string) *string {
	s = util.NormalizeSpaces(s)
	if s == "" {
		return nil
	}
	return &s
}
