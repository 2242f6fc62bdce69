package importer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"valvefinder/internal"
)

// ExportCatalogXLSX writes records, one per row, in the order given.
func ExportCatalogXLSX(records []internal.ValveRecord, banks func(internal.ValveRecord) []string, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{
		"id", "ref", "nombre", "banco", "bancos", "ubicacion", "cantidad",
		"numero_serie", "ficha_tecnica", "simbolo", "imagen", "notas",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, rec := range records {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, rec.ID)
		set(2, rec.Ref)
		set(3, rec.Name)
		set(4, rec.Bank)
		if banks != nil {
			set(5, strings.Join(banks(rec), ","))
		}
		set(6, rec.Location.String())
		set(7, derefInt(rec.Quantity))
		set(8, rec.SerialNumber)
		set(9, rec.DatasheetURL)
		set(10, rec.SymbolURL)
		set(11, rec.ImageURL)
		set(12, rec.Notes)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func derefInt(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}
