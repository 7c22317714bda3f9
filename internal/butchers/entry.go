package butchers

import (
	"github.com/shopspring/decimal"
)

// CashAccountRef is the sentinel account reference for anonymous
// point-of-sale transactions. CASH entries are exempt from aggregation:
// every qualifying line item stays its own product row.
const CashAccountRef = "CASH"

// UnknownCustomer is the display name used when an invoice carries neither
// an account reference, a company name, nor a contact name.
const UnknownCustomer = "Unknown Customer"

// Product is one finalized row of a customer's butchers list.
type Product struct {
	SageCode    string          `json:"sage_code"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// productKey identifies a running total during aggregation.
type productKey struct {
	code string
	name string
}

// CustomerEntry is one customer's slice of a butchers list. During a pipeline
// run the entry is mutable: invoice IDs are appended and quantities
// accumulated into totals. Finalize flattens totals back into Products, after
// which the entry is treated as immutable input to persistence.
type CustomerEntry struct {
	CustomerName   string    `json:"customer_name"`
	CustomerActRef string    `json:"customer_act_ref"`
	InvoiceIDs     []string  `json:"invoice_ids"`
	Products       []Product `json:"products"`

	// totals is the transient accumulation map keyed by (code, name).
	// Never serialized; discarded by finalize.
	totals map[productKey]decimal.Decimal
}

// addInvoiceID appends id to the entry's invoice list if not already present.
// It reports whether the id was new; callers skip re-accumulating line items
// for an invoice the entry has already seen.
func (e *CustomerEntry) addInvoiceID(id string) bool {
	for _, existing := range e.InvoiceIDs {
		if existing == id {
			return false
		}
	}
	e.InvoiceIDs = append(e.InvoiceIDs, id)
	return true
}

// seedTotals rebuilds the accumulation map from the finalized Products of a
// previously persisted entry, so that a re-fetch merges into prior state.
// CASH entries keep their product rows as-is and never use totals.
func (e *CustomerEntry) seedTotals() {
	e.totals = make(map[productKey]decimal.Decimal)
	if e.CustomerActRef == CashAccountRef {
		return
	}
	for _, p := range e.Products {
		key := productKey{code: p.SageCode, name: p.ProductName}
		e.totals[key] = e.totals[key].Add(p.Quantity)
	}
}
