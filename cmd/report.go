package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"butcherdesk/internal/report"
	"butcherdesk/internal/sage"
	"butcherdesk/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Maintain sales report membership",
	Long: `Edit which products (stock-sold report) or customers (MPP report) a
date's sales report covers.

Required environment variables:
  DATABASE_URL - Postgres connection string`,
}

var reportAddCmd = &cobra.Command{
	Use:   "add [id]",
	Short: "Add a product or customer to a date's report",
	Example: `  # Add a product to today's stock-sold report
  butcherdesk report add 6f1c...

  # Add a customer to the MPP report for a date
  butcherdesk report add C100 --customers --date 2024-01-05`,
	Args: cobra.ExactArgs(1),
	RunE: runReportEdit(true),
}

var reportRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a product or customer from a date's report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportEdit(false),
}

var reportSoldCmd = &cobra.Command{
	Use:   "sold",
	Short: "Print quantities sold for the products on a date's report",
	Long: `Fetch the day's invoice lines for the stock codes of every product on the
date's stock-sold report and print the total quantity sold per product.

Required environment variables:
  SAGE_API_URL or SAGE_API_URL_INTERNAL - Sage search API base URL
  SAGE_API_TOKEN                        - Sage API auth token
  DATABASE_URL                          - Postgres connection string`,
	RunE: runReportSold,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportAddCmd, reportRemoveCmd, reportSoldCmd)

	for _, c := range []*cobra.Command{reportAddCmd, reportRemoveCmd, reportSoldCmd} {
		c.Flags().String("date", "", "Report date (format: YYYY-MM-DD, default: today)")
	}
	for _, c := range []*cobra.Command{reportAddCmd, reportRemoveCmd} {
		c.Flags().Bool("customers", false, "Edit the customer membership (MPP report) instead of products")
	}
}

func runReportEdit(add bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		if date == "" {
			date = time.Now().Format("2006-01-02")
		} else if _, err := time.Parse("2006-01-02", date); err != nil {
			return fmt.Errorf("invalid date format. Use YYYY-MM-DD: %w", err)
		}
		customers, _ := cmd.Flags().GetBool("customers")
		memberID := args[0]

		column := report.ColumnProducts
		if customers {
			column = report.ColumnCustomers
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

		st := store.New(pool)
		rep, err := st.FetchReportByDate(ctx, date)
		if err != nil {
			return err
		}
		if rep == nil {
			if !add {
				fmt.Printf("No report exists for %s.\n", date)
				return nil
			}
			id, err := st.InsertReport(ctx, fmt.Sprintf("Sales report %s", date), date)
			if err != nil {
				return fmt.Errorf("creating report: %w", err)
			}
			rep, err = st.FetchReportByDate(ctx, date)
			if err != nil || rep == nil {
				return fmt.Errorf("reloading report %s: %w", id, err)
			}
		}

		svc := report.NewService(st)
		if add {
			err = svc.AddMember(ctx, rep, column, memberID)
		} else {
			err = svc.RemoveMember(ctx, rep, column, memberID)
		}

		switch {
		case errors.Is(err, report.ErrAlreadyMember):
			fmt.Println("Already in the report.")
			return nil
		case errors.Is(err, report.ErrNotMember):
			fmt.Println("Not in the report.")
			return nil
		case err != nil:
			return err
		}

		if add {
			fmt.Printf("Added %s to the %s report for %s.\n", memberID, column, date)
		} else {
			fmt.Printf("Removed %s from the %s report for %s.\n", memberID, column, date)
		}
		return nil
	}
}

func runReportSold(cmd *cobra.Command, args []string) error {
	date, err := dateFlag(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	client, err := sage.NewClient(sage.FromAppConfig(cfg))
	if err != nil {
		return fmt.Errorf("initializing Sage client: %w", err)
	}
	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	st := store.New(pool)
	rep, err := st.FetchReportByDate(ctx, date)
	if err != nil {
		return err
	}
	if rep == nil {
		fmt.Printf("No report exists for %s.\n", date)
		return nil
	}

	memberIDs := report.ParseMembers(rep.Products)
	if len(memberIDs) == 0 {
		fmt.Printf("The %s report has no products on it.\n", date)
		return nil
	}
	onReport := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		onReport[id] = struct{}{}
	}

	products, err := st.FetchProducts(ctx)
	if err != nil {
		return err
	}
	var codes []string
	nameByCode := make(map[string]string)
	for _, p := range products {
		if _, ok := onReport[p.ID]; !ok || p.SageCode == "" {
			continue
		}
		codes = append(codes, p.SageCode)
		nameByCode[p.SageCode] = p.Name
	}
	if len(codes) == 0 {
		fmt.Println("None of the report's products has a Sage code.")
		return nil
	}

	items, err := client.SearchItemsByDateAndCodes(ctx, date, codes)
	if err != nil {
		fmt.Println("Could not fetch invoice items from Sage. Check the connection and try again.")
		return nil
	}

	sold := make(map[string]decimal.Decimal, len(codes))
	for _, item := range items {
		code := string(item.StockCode)
		sold[code] = sold[code].Add(item.Quantity.Decimal)
	}

	fmt.Printf("Stock sold report for %s\n\n", date)
	for _, code := range codes {
		fmt.Printf("%-12s %-40s %s\n", code, nameByCode[code], sold[code].String())
	}
	return nil
}
