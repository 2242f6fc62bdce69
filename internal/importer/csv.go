package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/jszwec/csvutil"

	"valvefinder/internal"
)

func ParseValvesCSVFile(path string) ([]internal.BackendValve, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()
	return ParseValvesCSV(file)
}

// ParseValvesCSV decodes a comma separated valve list with a header row,
// accepting the same header spellings as the spreadsheet import.
func ParseValvesCSV(r io.Reader) ([]internal.BackendValve, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	raw, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	header := make([]string, 0, len(raw))
	for _, h := range raw {
		header = append(header, canonicalHeader(h))
	}
	if err := checkRequired(header); err != nil {
		return nil, err
	}

	decoder, err := csvutil.NewDecoder(reader, header...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV decoder: %w", err)
	}
	var rows []valveRow
	if err := decoder.Decode(&rows); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode CSV: %w", err)
	}
	return toValves(rows, 2)
}
