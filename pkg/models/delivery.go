package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Delivery is one goods-in record: a supplier delivery logged at the door
// with the traceability details the inspectors ask for.
type Delivery struct {
	ID        string    // Row identifier
	Date      string    // Delivery date (YYYY-MM-DD)
	CreatedAt time.Time // When the record was logged
	CreatedBy string    // User who logged it

	ProductID string          // Catalog product received
	Quantity  decimal.Decimal // Quantity received
	Supplier  string          // Supplier name
	Notes     string          // Free-form notes

	// Traceability
	VehicleTemperature string    // Vehicle temperature on arrival
	ProductTemperature string    // Product temperature on arrival
	DriverName         string    // Delivery driver
	LicensePlate       string    // Vehicle registration
	BatchCode          string    // Supplier batch code
	Origin             string    // Country/farm of origin
	KillDate           time.Time // Slaughter date, zero when not applicable
	UseBy              time.Time // Use-by date, zero when not applicable
	SlaughterNumber    string    // Slaughterhouse approval number
	CutNumber          string    // Cutting plant approval number

	// Assurance scheme flags
	RedTractor     bool
	RSPCA          bool
	OrganicAssured bool
}
