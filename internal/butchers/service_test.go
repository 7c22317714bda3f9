package butchers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"butcherdesk/internal/sage"
	"butcherdesk/pkg/models"
)

type fakeSearcher struct {
	invoices []sage.Invoice
	items    []sage.InvoiceItem

	invoicesErr error
	itemsErr    error

	// captured request parameters
	fullCalls    []string
	sinceCalls   []time.Time
	betweenSince []time.Time
	betweenUntil []time.Time
	itemNumbers  [][]string
}

func (f *fakeSearcher) SearchInvoices(ctx context.Context, date string) ([]sage.Invoice, error) {
	f.fullCalls = append(f.fullCalls, date)
	return f.invoices, f.invoicesErr
}

func (f *fakeSearcher) SearchInvoicesSince(ctx context.Context, date string, since time.Time) ([]sage.Invoice, error) {
	f.sinceCalls = append(f.sinceCalls, since)
	return f.invoices, f.invoicesErr
}

func (f *fakeSearcher) SearchInvoicesBetween(ctx context.Context, date string, since, until time.Time) ([]sage.Invoice, error) {
	f.betweenSince = append(f.betweenSince, since)
	f.betweenUntil = append(f.betweenUntil, until)
	return f.invoices, f.invoicesErr
}

func (f *fakeSearcher) SearchInvoiceItems(ctx context.Context, numbers []string) ([]sage.InvoiceItem, error) {
	f.itemNumbers = append(f.itemNumbers, numbers)
	return f.items, f.itemsErr
}

type fakeStore struct {
	codes     []string
	snapshots []models.Snapshot
}

func (f *fakeStore) FetchFreshStockCodes(ctx context.Context) ([]string, error) {
	return f.codes, nil
}

func (f *fakeStore) FetchButchersListByDate(ctx context.Context, date string) (*models.Snapshot, error) {
	if len(f.snapshots) == 0 {
		return nil, nil
	}
	latest := f.snapshots[len(f.snapshots)-1]
	return &latest, nil
}

func (f *fakeStore) FetchAllButchersListsByDate(ctx context.Context, date string) ([]models.Snapshot, error) {
	return f.snapshots, nil
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func newTestService(searcher *fakeSearcher, store *fakeStore) *Service {
	svc := NewService(searcher, store)
	svc.now = func() time.Time { return time.Date(2024, 1, 5, 18, 0, 0, 0, time.UTC) }
	return svc
}

func TestBuildListFullModeNoLowerBound(t *testing.T) {
	searcher := &fakeSearcher{
		invoices: []sage.Invoice{mkInvoice("1001", "C100", "Acme Co", "")},
		items:    []sage.InvoiceItem{mkItem("1001", "F1", "Beef", 10)},
	}
	svc := newTestService(searcher, &fakeStore{codes: []string{"F1"}})

	result, err := svc.BuildList(context.Background(), "2024-01-05")
	require.NoError(t, err)

	assert.Equal(t, OutcomeOK, result.Outcome)
	assert.Equal(t, []string{"2024-01-05"}, searcher.fullCalls)
	assert.Empty(t, searcher.sinceCalls, "full mode must not carry a creation-time bound")
	require.Len(t, searcher.itemNumbers, 1)
	assert.Equal(t, []string{"1001"}, searcher.itemNumbers[0])
	require.Len(t, result.Entries, 1)
	assert.False(t, result.FetchedAt.IsZero())
}

func TestBuildListIncrementalModeUsesSnapshotTimestamp(t *testing.T) {
	previousFetch := time.Date(2024, 1, 5, 12, 30, 0, 0, time.UTC)
	prior := []CustomerEntry{{
		CustomerName:   "Acme Co",
		CustomerActRef: "C100",
		InvoiceIDs:     []string{"1001"},
		Products:       []Product{{SageCode: "F1", ProductName: "Beef", Quantity: decimal.NewFromInt(10)}},
	}}

	searcher := &fakeSearcher{
		invoices: []sage.Invoice{mkInvoice("1003", "C100", "Acme Co", "")},
		items:    []sage.InvoiceItem{mkItem("1003", "F1", "Beef", 2)},
	}
	store := &fakeStore{
		codes: []string{"F1"},
		snapshots: []models.Snapshot{{
			ID:        "snap-1",
			Date:      "2024-01-05",
			Data:      mustJSON(t, prior),
			UpdatedAt: previousFetch,
		}},
	}
	svc := newTestService(searcher, store)

	result, err := svc.BuildList(context.Background(), "2024-01-05")
	require.NoError(t, err)

	assert.Empty(t, searcher.fullCalls)
	require.Len(t, searcher.sinceCalls, 1)
	assert.True(t, searcher.sinceCalls[0].Equal(previousFetch))

	assert.Equal(t, OutcomeOK, result.Outcome)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, []string{"1001", "1003"}, result.Entries[0].InvoiceIDs)
	require.Len(t, result.Entries[0].Products, 1)
	assert.True(t, result.Entries[0].Products[0].Quantity.Equal(decimal.NewFromInt(12)))
}

func TestBuildListEmptyFetch(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := newTestService(searcher, &fakeStore{codes: []string{"F1"}})

	result, err := svc.BuildList(context.Background(), "2024-01-05")
	require.NoError(t, err)

	assert.Equal(t, OutcomeEmpty, result.Outcome)
	assert.Empty(t, result.Entries)
	assert.Empty(t, searcher.itemNumbers, "no item fetch without invoices")
}

func TestBuildListTransportErrorSwallowed(t *testing.T) {
	searcher := &fakeSearcher{invoicesErr: errors.New("connection refused")}
	svc := newTestService(searcher, &fakeStore{codes: []string{"F1"}})

	result, err := svc.BuildList(context.Background(), "2024-01-05")
	require.NoError(t, err, "transport failures must not propagate as errors")
	assert.Equal(t, OutcomeUnavailable, result.Outcome)
	assert.Empty(t, result.Entries)
}

func TestBuildListItemFetchFailureAbortsRun(t *testing.T) {
	searcher := &fakeSearcher{
		invoices: []sage.Invoice{mkInvoice("1001", "C100", "Acme Co", "")},
		itemsErr: errors.New("timeout"),
	}
	svc := newTestService(searcher, &fakeStore{codes: []string{"F1"}})

	result, err := svc.BuildList(context.Background(), "2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnavailable, result.Outcome)
	assert.Empty(t, result.Entries)
}

func TestRefreshListWindowBounds(t *testing.T) {
	first := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	second := time.Date(2024, 1, 5, 13, 0, 0, 0, time.UTC)
	store := &fakeStore{
		codes: []string{"F1"},
		snapshots: []models.Snapshot{
			{ID: "snap-1", Date: "2024-01-05", Data: mustJSON(t, []CustomerEntry{}), UpdatedAt: first},
			{ID: "snap-2", Date: "2024-01-05", Data: mustJSON(t, []CustomerEntry{}), UpdatedAt: second},
		},
	}

	searcher := &fakeSearcher{
		invoices: []sage.Invoice{mkInvoice("1005", "CASH", "", "")},
		items:    []sage.InvoiceItem{mkItem("1005", "F1", "Beef", 1)},
	}
	svc := newTestService(searcher, store)

	// Index 1: bounded below by the first snapshot's fetch time.
	result, snapshotID, err := svc.RefreshList(context.Background(), "2024-01-05", 1)
	require.NoError(t, err)
	assert.Equal(t, "snap-2", snapshotID)
	assert.Equal(t, OutcomeOK, result.Outcome)
	require.Len(t, searcher.betweenSince, 1)
	assert.True(t, searcher.betweenSince[0].Equal(first))
	assert.True(t, searcher.betweenUntil[0].Equal(second))

	// Index 0: no lower bound.
	_, snapshotID, err = svc.RefreshList(context.Background(), "2024-01-05", 0)
	require.NoError(t, err)
	assert.Equal(t, "snap-1", snapshotID)
	require.Len(t, searcher.betweenSince, 2)
	assert.True(t, searcher.betweenSince[1].IsZero())
}

func TestRefreshListIndexOutOfRange(t *testing.T) {
	svc := newTestService(&fakeSearcher{}, &fakeStore{codes: []string{"F1"}})

	_, _, err := svc.RefreshList(context.Background(), "2024-01-05", 3)
	assert.Error(t, err)
}
