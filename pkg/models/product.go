package models

import "github.com/shopspring/decimal"

// Product is one row of the product catalog.
type Product struct {
	ID              string          // Row identifier
	Name            string          // Display name
	Cost            decimal.Decimal // Unit cost
	StockCount      decimal.Decimal // Current stock level
	ProductValue    decimal.Decimal // Stock valuation
	StockCategory   string          // Category used on stock-take sheets
	ProductCategory string          // Category used in sales reporting
	SageCode        string          // ERP stock code; may be a JSON-encoded list (legacy rows)
	Supplier        string          // Supplier name
	SoldAs          string          // Unit of sale (kg, each, box)
	Fresh           bool            // Whether the code counts toward butchers lists
}
