package sage

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// StringOrNumber is a string that tolerates numeric JSON input. The Sage
// search endpoints return invoice numbers and stock codes as either strings
// or bare numbers depending on how the record was keyed in; the canonical
// form everywhere in this codebase is the string.
type StringOrNumber string

func (s *StringOrNumber) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*s = ""
		return nil
	}
	if raw[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = StringOrNumber(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = StringOrNumber(n.String())
	return nil
}

// Quantity is a decimal that tolerates the loose typing of the Sage feed:
// numbers, quoted numbers, null, or a missing field all decode without error.
// Anything unparseable is coerced to zero rather than failing the whole
// response (best effort reconciliation of upstream data).
type Quantity struct {
	decimal.Decimal
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		q.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		q.Decimal = decimal.Zero
		return nil
	}
	q.Decimal = d
	return nil
}

// Invoice is a sales invoice header as returned by /api/searchInvoice.
// Line items are never inlined; they come from a separate item search.
type Invoice struct {
	InvoiceNumber      StringOrNumber `json:"invoiceNumber"`
	AccountRef         string         `json:"accountRef"`
	CustomerAccountRef string         `json:"customerAccountRef"`
	Name               string         `json:"name"`
	ContactName        string         `json:"contactName"`
}

// AccountReference returns the trimmed customer account reference. Older
// API versions populate customerAccountRef instead of accountRef.
func (inv Invoice) AccountReference() string {
	if ref := strings.TrimSpace(inv.AccountRef); ref != "" {
		return ref
	}
	return strings.TrimSpace(inv.CustomerAccountRef)
}

// InvoiceItem is a single invoice line as returned by /api/searchInvoiceItem.
type InvoiceItem struct {
	InvoiceNumber StringOrNumber `json:"invoiceNumber"`
	StockCode     StringOrNumber `json:"stockCode"`
	Description   string         `json:"description"`
	Quantity      Quantity       `json:"quantity"`
	UnitPrice     Quantity       `json:"unitPrice"`
}

// searchFilter is one clause of a Sage search payload. The API takes a JSON
// array of these, ANDed together.
type searchFilter struct {
	Field string `json:"field"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

type invoiceSearchResponse struct {
	Results []Invoice `json:"results"`
}

type itemSearchResponse struct {
	Results []InvoiceItem `json:"results"`
}
