package butchers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"butcherdesk/internal/logger"
	"butcherdesk/internal/sage"
	"butcherdesk/pkg/models"
)

// InvoiceSearcher is the slice of the Sage client the pipeline needs.
type InvoiceSearcher interface {
	SearchInvoices(ctx context.Context, date string) ([]sage.Invoice, error)
	SearchInvoicesSince(ctx context.Context, date string, since time.Time) ([]sage.Invoice, error)
	SearchInvoicesBetween(ctx context.Context, date string, since, until time.Time) ([]sage.Invoice, error)
	SearchInvoiceItems(ctx context.Context, invoiceNumbers []string) ([]sage.InvoiceItem, error)
}

// SnapshotStore is the slice of the persistence layer the pipeline needs.
type SnapshotStore interface {
	// FetchFreshStockCodes returns the raw fresh-product allow-list rows.
	FetchFreshStockCodes(ctx context.Context) ([]string, error)

	// FetchButchersListByDate returns the most recent snapshot for date,
	// or nil when none exists.
	FetchButchersListByDate(ctx context.Context, date string) (*models.Snapshot, error)

	// FetchAllButchersListsByDate returns every snapshot for date in
	// ascending UpdatedAt order.
	FetchAllButchersListsByDate(ctx context.Context, date string) ([]models.Snapshot, error)
}

// Outcome classifies a pipeline run for the caller. Transport failures are
// swallowed here and surfaced as OutcomeUnavailable so the presentation
// layer can distinguish "no invoices found for the selected date" from a
// genuine fetch problem without inspecting errors.
type Outcome int

const (
	// OutcomeOK means invoices were fetched and aggregated.
	OutcomeOK Outcome = iota

	// OutcomeEmpty means the fetch succeeded but found no invoices.
	OutcomeEmpty

	// OutcomeUnavailable means the ERP could not be reached or answered
	// with an error; nothing was aggregated.
	OutcomeUnavailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeEmpty:
		return "empty"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Result is the outcome of one fetch-and-aggregate run.
type Result struct {
	// Entries is the finalized customer list. Empty unless Outcome is OK.
	Entries []CustomerEntry

	// FetchedAt is the timestamp to persist alongside the entries.
	FetchedAt time.Time

	// Outcome classifies the run.
	Outcome Outcome
}

// Service drives the fetch-and-aggregate pipeline against the Sage API and
// the snapshot store. It is synchronous and not safe to invoke concurrently
// for the same date; callers serialize fetch-and-persist cycles per date.
type Service struct {
	sage  InvoiceSearcher
	store SnapshotStore
	log   zerolog.Logger
	now   func() time.Time
}

// NewService builds a pipeline Service.
func NewService(searcher InvoiceSearcher, store SnapshotStore) *Service {
	return &Service{
		sage:  searcher,
		store: store,
		log:   logger.WithComponent("butchers"),
		now:   time.Now,
	}
}

// BuildList fetches and aggregates the butchers list for date (YYYY-MM-DD).
//
// When no snapshot exists for the date it fetches the whole day (full mode).
// When one does, it fetches only invoices created after that snapshot's
// UpdatedAt and merges them into the snapshot's data (incremental mode).
//
// ERP transport failures are logged and reported via Result.Outcome, not
// returned; the error return is reserved for store and data errors.
func (s *Service) BuildList(ctx context.Context, date string) (Result, error) {
	const op = "BuildList"

	codes, err := s.store.FetchFreshStockCodes(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%s: fetching fresh codes: %w", op, err)
	}
	fresh := NewFreshCodeSet(codes)

	snapshot, err := s.store.FetchButchersListByDate(ctx, date)
	if err != nil {
		return Result{}, fmt.Errorf("%s: fetching snapshot: %w", op, err)
	}

	var (
		prior    []CustomerEntry
		invoices []sage.Invoice
	)
	if snapshot != nil {
		if err := json.Unmarshal(snapshot.Data, &prior); err != nil {
			return Result{}, fmt.Errorf("%s: decoding snapshot %s: %w", op, snapshot.ID, err)
		}
		s.log.Info().
			Str("date", date).
			Time("previous_fetch", snapshot.UpdatedAt).
			Msg("Incremental fetch since previous snapshot")
		invoices, err = s.sage.SearchInvoicesSince(ctx, date, snapshot.UpdatedAt)
	} else {
		s.log.Info().Str("date", date).Msg("Full fetch, no previous snapshot")
		invoices, err = s.sage.SearchInvoices(ctx, date)
	}
	if err != nil {
		s.log.Error().Err(err).Str("date", date).Msg("Invoice fetch failed")
		return Result{FetchedAt: s.now(), Outcome: OutcomeUnavailable}, nil
	}

	return s.aggregate(ctx, date, prior, invoices, fresh)
}

// RefreshList re-derives one historical snapshot of a multi-fetch day.
// listIndex selects the snapshot in ascending UpdatedAt order; the fetch
// window is bounded above by that snapshot's own fetch time and below by the
// preceding snapshot's (unbounded for index 0). The aggregation starts from
// an empty base. Returns the snapshot ID to overwrite alongside the result.
func (s *Service) RefreshList(ctx context.Context, date string, listIndex int) (Result, string, error) {
	const op = "RefreshList"

	codes, err := s.store.FetchFreshStockCodes(ctx)
	if err != nil {
		return Result{}, "", fmt.Errorf("%s: fetching fresh codes: %w", op, err)
	}
	fresh := NewFreshCodeSet(codes)

	snapshots, err := s.store.FetchAllButchersListsByDate(ctx, date)
	if err != nil {
		return Result{}, "", fmt.Errorf("%s: fetching snapshots: %w", op, err)
	}
	if listIndex < 0 || listIndex >= len(snapshots) {
		return Result{}, "", fmt.Errorf("%s: list index %d out of range, %d snapshots for %s", op, listIndex, len(snapshots), date)
	}

	target := snapshots[listIndex]
	var since time.Time
	if listIndex > 0 {
		since = snapshots[listIndex-1].UpdatedAt
	}

	s.log.Info().
		Str("date", date).
		Int("list_index", listIndex).
		Time("window_until", target.UpdatedAt).
		Time("window_since", since).
		Msg("Refreshing historical snapshot")

	invoices, err := s.sage.SearchInvoicesBetween(ctx, date, since, target.UpdatedAt)
	if err != nil {
		s.log.Error().Err(err).Str("date", date).Msg("Invoice fetch failed")
		return Result{FetchedAt: s.now(), Outcome: OutcomeUnavailable}, target.ID, nil
	}

	result, err := s.aggregate(ctx, date, nil, invoices, fresh)
	return result, target.ID, err
}

func (s *Service) aggregate(ctx context.Context, date string, prior []CustomerEntry, invoices []sage.Invoice, fresh FreshCodeSet) (Result, error) {
	if len(invoices) == 0 {
		s.log.Info().Str("date", date).Msg("No invoices found")
		return Result{FetchedAt: s.now(), Outcome: OutcomeEmpty}, nil
	}

	numbers := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		if n := strings.TrimSpace(string(inv.InvoiceNumber)); n != "" {
			numbers = append(numbers, n)
		}
	}

	items, err := s.sage.SearchInvoiceItems(ctx, numbers)
	if err != nil {
		// A failed bulk item fetch aborts the whole run; there is no
		// partial success for a date.
		s.log.Error().Err(err).Str("date", date).Msg("Invoice item fetch failed")
		return Result{FetchedAt: s.now(), Outcome: OutcomeUnavailable}, nil
	}

	entries := Process(prior, invoices, items, fresh)

	s.log.Info().
		Str("date", date).
		Int("invoices", len(invoices)).
		Int("line_items", len(items)).
		Int("customers", len(entries)).
		Msg("Butchers list aggregated")

	return Result{Entries: entries, FetchedAt: s.now(), Outcome: OutcomeOK}, nil
}
