package models

import "time"

// Report is one row of the reports table. The Products and Customers columns
// hold JSON-encoded ID lists whose historical shape is irregular: a bare
// scalar, a JSON scalar, or a JSON array. internal/report normalizes them.
type Report struct {
	ID        string    // Row identifier
	Name      string    // Report title
	Date      string    // Reporting date (YYYY-MM-DD)
	Products  string    // Raw product ID membership column
	Customers string    // Raw customer ID membership column
	UpdatedAt time.Time // Last membership change
}
