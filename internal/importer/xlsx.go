package importer

import (
	"bytes"
	"errors"
	"os"

	"github.com/xuri/excelize/v2"

	"valvefinder/internal"
	"valvefinder/internal/util"
)

func ParseValvesXLSXFile(path string) ([]internal.BackendValve, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseValvesXLSX(blob)
}

// ParseValvesXLSX reads the first sheet of a workbook. Row 1 is the header;
// column order is free and headers are matched case- and accent-insensitively.
func ParseValvesXLSX(content []byte) ([]internal.BackendValve, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrMissingColumns
	}

	header := make([]string, 0, len(rows[0]))
	for _, h := range rows[0] {
		header = append(header, canonicalHeader(h))
	}
	if err := checkRequired(header); err != nil {
		return nil, err
	}

	parsed := make([]valveRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cell := func(name string) string {
			for i, h := range header {
				if h == name && i < len(row) {
					return util.NormalizeSpaces(row[i])
				}
			}
			return ""
		}
		parsed = append(parsed, valveRow{
			ID:           cell("id"),
			Valve:        cell("valvula"),
			Quantity:     cell("cantidad"),
			Location:     cell("ubicacion"),
			SerialNumber: cell("numero_serie"),
			DatasheetURL: cell("ficha_tecnica"),
			SymbolURL:    cell("simbolo"),
			Bank:         cell("banco"),
		})
	}
	return toValves(parsed, 2)
}
