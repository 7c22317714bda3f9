// Package butchers builds per-customer "butchers lists": the per-date
// aggregation of fresh-product order quantities derived from Sage sales
// invoices. Line items are grouped by customer identity, filtered to the
// fresh-product allow-list, and summed per (stock code, product name) pair,
// with CASH point-of-sale invoices kept item-by-item instead of summed.
package butchers

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"butcherdesk/internal/sage"
)

// ResolveCustomer derives the stable identity key and display name for a
// customer from whichever of account reference, company name, and contact
// name is available. First non-empty wins; a customer with none of the three
// becomes "Unknown Customer".
func ResolveCustomer(accountRef, companyName, contactName string) (key, name string) {
	ref := strings.TrimSpace(accountRef)
	company := strings.TrimSpace(companyName)
	contact := strings.TrimSpace(contactName)

	name = company
	if name == "" {
		name = contact
	}
	if name == "" {
		name = UnknownCustomer
	}

	key = ref
	if key == "" {
		key = name
	}
	return key, name
}

// ledger is the in-progress update-or-insert map for one pipeline run,
// with insertion order preserved for deterministic output.
type ledger struct {
	entries map[string]*CustomerEntry
	order   []string
}

// newLedger seeds a ledger from a previously persisted butchers list. Prior
// entries are the merge base: they are retained in the output even if no new
// invoice touches them.
func newLedger(prior []CustomerEntry) *ledger {
	l := &ledger{entries: make(map[string]*CustomerEntry, len(prior))}
	for i := range prior {
		entry := prior[i]
		key, _ := ResolveCustomer(entry.CustomerActRef, entry.CustomerName, "")
		entry.seedTotals()
		l.entries[key] = &entry
		l.order = append(l.order, key)
	}
	return l
}

// getOrCreate returns the ledger entry for key, creating one when absent.
// Newly created keys are recorded in newKeys so the caller can later drop
// brand-new customers that contributed no fresh products.
func (l *ledger) getOrCreate(key, name, actRef string, newKeys *[]string) *CustomerEntry {
	if entry, ok := l.entries[key]; ok {
		return entry
	}
	entry := &CustomerEntry{
		CustomerName:   name,
		CustomerActRef: actRef,
		InvoiceIDs:     []string{},
		Products:       []Product{},
		totals:         make(map[productKey]decimal.Decimal),
	}
	l.entries[key] = entry
	l.order = append(l.order, key)
	*newKeys = append(*newKeys, key)
	return entry
}

// accumulateInvoice folds the line items of one invoice into entry. Items are
// matched by string-normalized invoice number, trimmed, and filtered through
// the fresh-code allow-list. CASH entries get one product row per item; all
// other entries accumulate into the running totals. Reports whether at least
// one fresh item was seen.
func accumulateInvoice(items []sage.InvoiceItem, entry *CustomerEntry, invoiceID string, fresh FreshCodeSet) bool {
	hasFresh := false
	for _, item := range items {
		if strings.TrimSpace(string(item.InvoiceNumber)) != invoiceID {
			continue
		}
		code := strings.TrimSpace(string(item.StockCode))
		if !fresh.Contains(code) {
			continue
		}
		hasFresh = true

		name := strings.TrimSpace(item.Description)
		qty := item.Quantity.Decimal

		if entry.CustomerActRef == CashAccountRef {
			// CASH sales are anonymous till: never collapse, never round.
			entry.Products = append(entry.Products, Product{
				SageCode:    code,
				ProductName: name,
				Quantity:    qty,
			})
		} else {
			key := productKey{code: code, name: name}
			entry.totals[key] = entry.totals[key].Add(qty)
		}
	}
	return hasFresh
}

// finalize flattens each entry's accumulation map back into its Products
// list, sorted by (code, name) for stable output, and discards the map.
// CASH entries keep the product rows built up during accumulation.
// Quantities are not rounded; see DESIGN.md for the policy decision.
func finalize(entries []*CustomerEntry) {
	for _, entry := range entries {
		if entry.CustomerActRef != CashAccountRef {
			products := make([]Product, 0, len(entry.totals))
			for key, qty := range entry.totals {
				products = append(products, Product{
					SageCode:    key.code,
					ProductName: key.name,
					Quantity:    qty,
				})
			}
			sort.Slice(products, func(i, j int) bool {
				if products[i].SageCode != products[j].SageCode {
					return products[i].SageCode < products[j].SageCode
				}
				return products[i].ProductName < products[j].ProductName
			})
			entry.Products = products
		}
		entry.totals = nil
	}
}

// Process runs the reconciliation pipeline: it merges invoices and their line
// items into the prior butchers list (which may be nil for a first fetch) and
// returns the finalized customer entries. Previously persisted customers are
// always retained; customers created by this run are kept only if at least
// one of their line items passed the fresh-product filter.
func Process(prior []CustomerEntry, invoices []sage.Invoice, items []sage.InvoiceItem, fresh FreshCodeSet) []CustomerEntry {
	l := newLedger(prior)

	var newKeys []string
	freshKeys := make(map[string]struct{})

	for _, inv := range invoices {
		key, name := ResolveCustomer(inv.AccountReference(), inv.Name, inv.ContactName)
		invoiceID := strings.TrimSpace(string(inv.InvoiceNumber))

		entry := l.getOrCreate(key, name, strings.TrimSpace(inv.AccountReference()), &newKeys)

		// An invoice already on the entry has been counted before, either
		// earlier in this run or by a previous fetch.
		if !entry.addInvoiceID(invoiceID) {
			continue
		}

		if accumulateInvoice(items, entry, invoiceID, fresh) {
			freshKeys[key] = struct{}{}
		}
	}

	// Prior customers always survive; new ones need a fresh contribution.
	isNew := make(map[string]struct{}, len(newKeys))
	for _, key := range newKeys {
		isNew[key] = struct{}{}
	}

	var kept []*CustomerEntry
	for _, key := range l.order {
		if _, created := isNew[key]; created {
			if _, ok := freshKeys[key]; !ok {
				continue
			}
		}
		kept = append(kept, l.entries[key])
	}

	finalize(kept)

	out := make([]CustomerEntry, len(kept))
	for i, entry := range kept {
		out[i] = *entry
	}
	return out
}
