package export

import (
	"fmt"
	"sort"

	"github.com/jung-kurt/gofpdf"

	"butcherdesk/internal/logger"
	"butcherdesk/pkg/models"
)

// WriteStockTakePDF writes a printable stock-take checklist: products grouped
// by stock category, one line per product with an empty count box to fill in
// by hand on the shop floor.
func WriteStockTakePDF(products []models.Product, path string) error {
	const op = "WriteStockTakePDF"
	log := logger.WithComponent("export")

	if len(products) == 0 {
		return fmt.Errorf("%s: nothing to export", op)
	}

	grouped := make(map[string][]models.Product)
	for _, p := range products {
		grouped[p.StockCategory] = append(grouped[p.StockCategory], p)
	}
	categories := make([]string, 0, len(grouped))
	for category := range grouped {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Stock Take Report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	for _, category := range categories {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, category, "", 1, "L", false, 0, "")

		pdf.SetFont("Arial", "", 10)
		items := grouped[category]
		sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
		for _, p := range items {
			pdf.CellFormat(10, 7, "", "", 0, "L", false, 0, "")
			pdf.CellFormat(110, 7, p.Name, "", 0, "L", false, 0, "")
			// Empty box for the hand-written count
			pdf.CellFormat(18, 7, "", "1", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("%s: saving %s: %w", op, path, err)
	}

	log.Info().Str("path", path).Int("products", len(products)).Msg("Stock take exported to PDF")
	return nil
}
