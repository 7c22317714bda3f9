// Package export renders butchers lists and stock-take sheets to files the
// shop actually hands around: Excel workbooks and printable PDFs.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"butcherdesk/internal/butchers"
	"butcherdesk/internal/logger"
)

var butchersListHeaders = []string{"Sage Code", "Product", "Quantity"}

// WriteButchersListExcel writes the customer entries for one date to an
// Excel workbook, grouped per customer: a bold customer line, a bordered
// header row, one bordered row per product, and a blank spacer line.
func WriteButchersListExcel(entries []butchers.CustomerEntry, date, path string) error {
	const op = "WriteButchersListExcel"
	log := logger.WithComponent("export")

	if len(entries) == 0 {
		return fmt.Errorf("%s: nothing to export", op)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Butchers List"
	f.SetSheetName("Sheet1", sheet)

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 20}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	borderStyle, err := f.NewStyle(&excelize.Style{
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	row := 1
	setCell := func(col, r int, value any, style int) error {
		cell, err := excelize.CoordinatesToCellName(col, r)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
		if style != 0 {
			return f.SetCellStyle(sheet, cell, cell, style)
		}
		return nil
	}

	if err := setCell(1, row, fmt.Sprintf("Butchers List %s", date), titleStyle); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	row += 2

	for _, entry := range entries {
		name := entry.CustomerName
		if entry.CustomerActRef != "" {
			name = fmt.Sprintf("%s (%s)", entry.CustomerName, entry.CustomerActRef)
		}
		if err := setCell(1, row, name, boldStyle); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		row++

		for col, header := range butchersListHeaders {
			if err := setCell(col+1, row, header, boldStyle); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
		row++

		for _, product := range entry.Products {
			qty, _ := product.Quantity.Float64()
			values := []any{product.SageCode, product.ProductName, qty}
			for col, value := range values {
				if err := setCell(col+1, row, value, borderStyle); err != nil {
					return fmt.Errorf("%s: %w", op, err)
				}
			}
			row++
		}

		// Spacer line between customers
		row++
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%s: saving %s: %w", op, path, err)
	}

	log.Info().Str("path", path).Int("customers", len(entries)).Msg("Butchers list exported to Excel")
	return nil
}
