package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"butcherdesk/internal/butchers"
	"butcherdesk/internal/export"
	"butcherdesk/internal/logger"
	"butcherdesk/internal/sage"
	"butcherdesk/internal/store"
)

var butchersCmd = &cobra.Command{
	Use:   "butchers",
	Short: "Fetch, refresh, inspect, and export butchers lists",
	Long: `Work with per-date butchers lists: the per-customer aggregation of fresh
produce quantities derived from the day's Sage sales invoices.

Required environment variables:
  SAGE_API_URL or SAGE_API_URL_INTERNAL - Sage search API base URL
  SAGE_API_TOKEN                        - Sage API auth token
  DATABASE_URL                          - Postgres connection string`,
}

var butchersFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch invoices for a date and persist a new butchers list snapshot",
	Long: `Fetch the date's sales invoices from Sage, aggregate fresh-product
quantities per customer, and persist the result as a new snapshot.

If a snapshot already exists for the date, only invoices created since that
snapshot's fetch time are retrieved and merged into it (incremental fetch).`,
	Example: `  # Fetch today's list
  butcherdesk butchers fetch

  # Fetch a specific date
  butcherdesk butchers fetch --date 2024-01-05`,
	RunE: runButchersFetch,
}

var butchersRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-derive one historical snapshot of a multi-fetch day",
	Long: `Recompute a single snapshot in a date's fetch history. The invoice window
is bounded by that snapshot's own fetch time and the preceding snapshot's
fetch time (the first snapshot of the day has no lower bound).`,
	Example: `  # Recompute the second snapshot of the day
  butcherdesk butchers refresh --date 2024-01-05 --list 1`,
	RunE: runButchersRefresh,
}

var butchersShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current butchers list for a date",
	RunE:  runButchersShow,
}

var butchersExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the current butchers list for a date to an Excel workbook",
	RunE:  runButchersExport,
}

func init() {
	rootCmd.AddCommand(butchersCmd)
	butchersCmd.AddCommand(butchersFetchCmd, butchersRefreshCmd, butchersShowCmd, butchersExportCmd)

	for _, c := range []*cobra.Command{butchersFetchCmd, butchersRefreshCmd, butchersShowCmd, butchersExportCmd} {
		c.Flags().String("date", "", "List date (format: YYYY-MM-DD, default: today)")
	}
	butchersRefreshCmd.Flags().Int("list", 0, "Snapshot index within the date's history (0 = first fetch)")
	butchersExportCmd.Flags().StringP("output", "o", "", "Output file path (default: butchers-list-<date>.xlsx)")
}

func dateFlag(cmd *cobra.Command) (string, error) {
	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		return time.Now().Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", fmt.Errorf("invalid date format. Use YYYY-MM-DD: %w", err)
	}
	return date, nil
}

// openButchers wires the Sage client, the store, and the pipeline service.
// The caller owns the returned pool.
func openButchers(ctx context.Context) (*butchers.Service, *store.Store, *pgxpool.Pool, error) {
	cfg, err := requireConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	client, err := sage.NewClient(sage.FromAppConfig(cfg))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initializing Sage client: %w", err)
	}

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	st := store.New(pool)
	return butchers.NewService(client, st), st, pool, nil
}

func runButchersFetch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("butchers-fetch")

	date, err := dateFlag(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	svc, st, pool, err := openButchers(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	log.Info().Str("date", date).Msg("Starting butchers list fetch")

	result, err := svc.BuildList(ctx, date)
	if err != nil {
		return err
	}

	switch result.Outcome {
	case butchers.OutcomeEmpty:
		fmt.Printf("No invoices found for the selected date (%s).\n", date)
		return nil
	case butchers.OutcomeUnavailable:
		fmt.Println("Could not fetch invoices from Sage. Check the connection and try again.")
		return nil
	}

	id, err := st.InsertButchersList(ctx, date, result.Entries, result.FetchedAt)
	if err != nil {
		return fmt.Errorf("persisting butchers list: %w", err)
	}

	fmt.Printf("Butchers list for %s saved (%d customers, snapshot %s).\n", date, len(result.Entries), id)
	return nil
}

func runButchersRefresh(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("butchers-refresh")

	date, err := dateFlag(cmd)
	if err != nil {
		return err
	}
	listIndex, _ := cmd.Flags().GetInt("list")

	ctx := cmd.Context()
	svc, st, pool, err := openButchers(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	log.Info().Str("date", date).Int("list", listIndex).Msg("Starting butchers list refresh")

	result, snapshotID, err := svc.RefreshList(ctx, date, listIndex)
	if err != nil {
		return err
	}

	switch result.Outcome {
	case butchers.OutcomeEmpty:
		fmt.Printf("No invoices found in that snapshot's window; snapshot %s left unchanged.\n", snapshotID)
		return nil
	case butchers.OutcomeUnavailable:
		fmt.Println("Could not fetch invoices from Sage. Check the connection and try again.")
		return nil
	}

	if err := st.UpdateButchersList(ctx, snapshotID, result.Entries, time.Time{}); err != nil {
		return fmt.Errorf("persisting refreshed list: %w", err)
	}

	fmt.Printf("Snapshot %s refreshed (%d customers).\n", snapshotID, len(result.Entries))
	return nil
}

func loadSnapshotEntries(ctx context.Context, st *store.Store, date string) ([]butchers.CustomerEntry, error) {
	snap, err := st.FetchButchersListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, nil
	}
	var entries []butchers.CustomerEntry
	if err := json.Unmarshal(snap.Data, &entries); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", snap.ID, err)
	}
	return entries, nil
}

func runButchersShow(cmd *cobra.Command, args []string) error {
	date, err := dateFlag(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	entries, err := loadSnapshotEntries(ctx, store.New(pool), date)
	if err != nil {
		return err
	}
	if entries == nil {
		fmt.Printf("No butchers list saved for %s.\n", date)
		return nil
	}

	fmt.Printf("Butchers list for %s (%d customers)\n\n", date, len(entries))
	for _, entry := range entries {
		if entry.CustomerActRef != "" {
			fmt.Printf("%s (%s)  invoices: %v\n", entry.CustomerName, entry.CustomerActRef, entry.InvoiceIDs)
		} else {
			fmt.Printf("%s  invoices: %v\n", entry.CustomerName, entry.InvoiceIDs)
		}
		for _, p := range entry.Products {
			fmt.Printf("  %-12s %-40s %s\n", p.SageCode, p.ProductName, p.Quantity.String())
		}
		fmt.Println()
	}
	return nil
}

func runButchersExport(cmd *cobra.Command, args []string) error {
	date, err := dateFlag(cmd)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = fmt.Sprintf("butchers-list-%s.xlsx", date)
	}

	ctx := cmd.Context()
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	entries, err := loadSnapshotEntries(ctx, store.New(pool), date)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Printf("No butchers list saved for %s.\n", date)
		return nil
	}

	if err := export.WriteButchersListExcel(entries, date, output); err != nil {
		return err
	}

	fmt.Printf("Butchers list for %s exported to %s.\n", date, output)
	return nil
}
