package butchers

import (
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"butcherdesk/internal/sage"
)

func mkInvoice(number, actRef, name, contact string) sage.Invoice {
	return sage.Invoice{
		InvoiceNumber: sage.StringOrNumber(number),
		AccountRef:    actRef,
		Name:          name,
		ContactName:   contact,
	}
}

func mkItem(invoiceNumber, code, desc string, qty float64) sage.InvoiceItem {
	return sage.InvoiceItem{
		InvoiceNumber: sage.StringOrNumber(invoiceNumber),
		StockCode:     sage.StringOrNumber(code),
		Description:   desc,
		Quantity:      sage.Quantity{Decimal: decimal.NewFromFloat(qty)},
	}
}

func sortedEntries(entries []CustomerEntry) []CustomerEntry {
	out := make([]CustomerEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerName < out[j].CustomerName })
	return out
}

func TestResolveCustomerPrecedence(t *testing.T) {
	key, name := ResolveCustomer("C100", "Acme Co", "J Smith")
	assert.Equal(t, "C100", key)
	assert.Equal(t, "Acme Co", name)

	key, name = ResolveCustomer("", "Acme Co", "J Smith")
	assert.Equal(t, "Acme Co", key)
	assert.Equal(t, "Acme Co", name)

	key, name = ResolveCustomer("", "", "J Smith")
	assert.Equal(t, "J Smith", key)
	assert.Equal(t, "J Smith", name)

	key, name = ResolveCustomer("  ", " ", "")
	assert.Equal(t, UnknownCustomer, key)
	assert.Equal(t, UnknownCustomer, name)
}

// The worked scenario: a regular account aggregates, a CASH invoice keeps
// every item as its own row.
func TestProcessExampleScenario(t *testing.T) {
	invoices := []sage.Invoice{
		mkInvoice("1001", "C100", "Acme Co", ""),
		mkInvoice("1002", "CASH", "", ""),
	}
	items := []sage.InvoiceItem{
		mkItem("1001", "F1", "Beef", 10),
		mkItem("1002", "F1", "Beef", 5),
		mkItem("1002", "F1", "Beef", 5),
	}

	entries := Process(nil, invoices, items, NewFreshCodeSet([]string{"F1"}))
	require.Len(t, entries, 2)

	acme := entries[0]
	assert.Equal(t, "Acme Co", acme.CustomerName)
	assert.Equal(t, "C100", acme.CustomerActRef)
	assert.Equal(t, []string{"1001"}, acme.InvoiceIDs)
	require.Len(t, acme.Products, 1)
	assert.Equal(t, "F1", acme.Products[0].SageCode)
	assert.Equal(t, "Beef", acme.Products[0].ProductName)
	assert.True(t, acme.Products[0].Quantity.Equal(decimal.NewFromInt(10)))

	cash := entries[1]
	assert.Equal(t, "CASH", cash.CustomerActRef)
	assert.Equal(t, []string{"1002"}, cash.InvoiceIDs)
	require.Len(t, cash.Products, 2)
	for _, p := range cash.Products {
		assert.Equal(t, "F1", p.SageCode)
		assert.True(t, p.Quantity.Equal(decimal.NewFromInt(5)))
	}
}

func TestCashNeverCollapses(t *testing.T) {
	invoices := []sage.Invoice{mkInvoice("2001", "CASH", "", "")}
	items := []sage.InvoiceItem{
		mkItem("2001", "F1", "Sausages", 2.5),
		mkItem("2001", "F1", "Sausages", 2.5),
	}

	entries := Process(nil, invoices, items, NewFreshCodeSet([]string{"F1"}))
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].Products, 2)
}

func TestNonCashCollapsesAcrossInvoices(t *testing.T) {
	invoices := []sage.Invoice{
		mkInvoice("3001", "C200", "Corner Cafe", ""),
		mkInvoice("3002", "C200", "Corner Cafe", ""),
	}
	items := []sage.InvoiceItem{
		mkItem("3001", "F1", "Mince", 3),
		mkItem("3002", "F1", "Mince", 4.5),
	}

	entries := Process(nil, invoices, items, NewFreshCodeSet([]string{"F1"}))
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, []string{"3001", "3002"}, entry.InvoiceIDs)
	require.Len(t, entry.Products, 1)
	assert.True(t, entry.Products[0].Quantity.Equal(decimal.NewFromFloat(7.5)),
		"expected 7.5, got %s", entry.Products[0].Quantity)
}

func TestNonFreshItemsExcludedAndNewCustomerPruned(t *testing.T) {
	invoices := []sage.Invoice{
		mkInvoice("4001", "C300", "Dry Goods Ltd", ""),
		mkInvoice("4002", "C100", "Acme Co", ""),
	}
	items := []sage.InvoiceItem{
		mkItem("4001", "DRY1", "Napkins", 100), // not on the allow-list
		mkItem("4002", "F1", "Beef", 1),
	}

	entries := Process(nil, invoices, items, NewFreshCodeSet([]string{"F1"}))
	require.Len(t, entries, 1)
	assert.Equal(t, "Acme Co", entries[0].CustomerName)
	for _, p := range entries[0].Products {
		assert.NotEqual(t, "DRY1", p.SageCode)
	}
}

func TestPriorCustomerRetainedWithoutFreshContribution(t *testing.T) {
	prior := []CustomerEntry{
		{
			CustomerName:   "Acme Co",
			CustomerActRef: "C100",
			InvoiceIDs:     []string{"1001"},
			Products: []Product{
				{SageCode: "F1", ProductName: "Beef", Quantity: decimal.NewFromInt(10)},
			},
		},
	}
	// The incremental fetch brings only a non-fresh invoice for a new
	// customer; the prior customer survives untouched, the new one doesn't.
	invoices := []sage.Invoice{mkInvoice("5001", "C900", "Paper Co", "")}
	items := []sage.InvoiceItem{mkItem("5001", "DRY1", "Boxes", 10)}

	entries := Process(prior, invoices, items, NewFreshCodeSet([]string{"F1"}))
	require.Len(t, entries, 1)
	assert.Equal(t, "Acme Co", entries[0].CustomerName)
	require.Len(t, entries[0].Products, 1)
	assert.True(t, entries[0].Products[0].Quantity.Equal(decimal.NewFromInt(10)))
}

func TestMergeIntoPriorState(t *testing.T) {
	prior := []CustomerEntry{
		{
			CustomerName:   "Acme Co",
			CustomerActRef: "C100",
			InvoiceIDs:     []string{"1001"},
			Products: []Product{
				{SageCode: "F1", ProductName: "Beef", Quantity: decimal.NewFromInt(10)},
			},
		},
	}
	invoices := []sage.Invoice{mkInvoice("1003", "C100", "Acme Co", "")}
	items := []sage.InvoiceItem{mkItem("1003", "F1", "Beef", 2)}

	entries := Process(prior, invoices, items, NewFreshCodeSet([]string{"F1"}))
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, []string{"1001", "1003"}, entry.InvoiceIDs)
	require.Len(t, entry.Products, 1)
	assert.True(t, entry.Products[0].Quantity.Equal(decimal.NewFromInt(12)))
}

func TestDuplicateInvoiceNotCountedTwice(t *testing.T) {
	// The same invoice appearing twice in a fetch result (or again in an
	// overlapping incremental fetch) must not duplicate IDs or quantities.
	invoices := []sage.Invoice{
		mkInvoice("6001", "C100", "Acme Co", ""),
		mkInvoice("6001", "C100", "Acme Co", ""),
	}
	items := []sage.InvoiceItem{mkItem("6001", "F1", "Beef", 4)}

	entries := Process(nil, invoices, items, NewFreshCodeSet([]string{"F1"}))
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"6001"}, entries[0].InvoiceIDs)
	require.Len(t, entries[0].Products, 1)
	assert.True(t, entries[0].Products[0].Quantity.Equal(decimal.NewFromInt(4)))
}

func TestIdempotentReAggregation(t *testing.T) {
	invoices := []sage.Invoice{
		mkInvoice("1001", "C100", "Acme Co", ""),
		mkInvoice("1002", "CASH", "", ""),
		mkInvoice("1003", "", "", "J Smith"),
	}
	items := []sage.InvoiceItem{
		mkItem("1001", "F1", "Beef", 10),
		mkItem("1002", "F2", "Lamb", 5),
		mkItem("1003", "F1", "Beef", 1),
		mkItem("1003", "F2", "Lamb", 2),
	}
	fresh := NewFreshCodeSet([]string{"F1", "F2"})

	first := sortedEntries(Process(nil, invoices, items, fresh))
	second := sortedEntries(Process(nil, invoices, items, fresh))
	assert.Equal(t, first, second)
}

func TestNormalizationOfLooseFields(t *testing.T) {
	invoices := []sage.Invoice{mkInvoice("7001", " C100 ", " Acme Co ", "")}
	items := []sage.InvoiceItem{
		{
			InvoiceNumber: sage.StringOrNumber("7001"),
			StockCode:     sage.StringOrNumber("  F1  "),
			Description:   "  Beef  ",
			Quantity:      sage.Quantity{Decimal: decimal.NewFromInt(3)},
		},
	}

	entries := Process(nil, invoices, items, NewFreshCodeSet([]string{"F1"}))
	require.Len(t, entries, 1)
	assert.Equal(t, "C100", entries[0].CustomerActRef)
	require.Len(t, entries[0].Products, 1)
	assert.Equal(t, "F1", entries[0].Products[0].SageCode)
	assert.Equal(t, "Beef", entries[0].Products[0].ProductName)
}

func TestFinalizeDropsAccumulationState(t *testing.T) {
	invoices := []sage.Invoice{mkInvoice("8001", "C100", "Acme Co", "")}
	items := []sage.InvoiceItem{mkItem("8001", "F1", "Beef", 1)}

	entries := Process(nil, invoices, items, NewFreshCodeSet([]string{"F1"}))
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].totals)
}
