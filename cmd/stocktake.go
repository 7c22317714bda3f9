package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"butcherdesk/internal/export"
	"butcherdesk/internal/store"
)

var stocktakeCmd = &cobra.Command{
	Use:   "stocktake",
	Short: "Stock-take sheets and recorded counts",
}

var stocktakeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a printable stock-take checklist as PDF",
	Long: `Write a PDF checklist of the whole product catalog, grouped by stock
category, with an empty count box per product for the shop floor.`,
	RunE: runStocktakeExport,
}

var stocktakeRecordCmd = &cobra.Command{
	Use:   "record [product-id=count ...]",
	Short: "Record a completed stock take for a category",
	Long: `Persist the counts from a filled-in stock-take sheet. Each argument is one
counted product, written as product-id=count.`,
	Example: `  butcherdesk stocktake record --category Fresh 6f1c...=12 9a2e...=3.5`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runStocktakeRecord,
}

var stocktakeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the most recent recorded count for a category",
	RunE:  runStocktakeShow,
}

func init() {
	rootCmd.AddCommand(stocktakeCmd)
	stocktakeCmd.AddCommand(stocktakeExportCmd, stocktakeRecordCmd, stocktakeShowCmd)

	stocktakeExportCmd.Flags().StringP("output", "o", "", "Output file path (default: stock-take-<date>.pdf)")
	stocktakeRecordCmd.Flags().String("category", "", "Stock category the count covers")
	stocktakeShowCmd.Flags().String("category", "", "Stock category")
}

// parseCounts turns product-id=count arguments into a counted-quantity map.
func parseCounts(args []string) (map[string]decimal.Decimal, error) {
	counts := make(map[string]decimal.Decimal, len(args))
	for _, arg := range args {
		id, raw, ok := strings.Cut(arg, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid count %q: expected product-id=count", arg)
		}
		qty, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid count for %s: %w", id, err)
		}
		if _, dup := counts[id]; dup {
			return nil, fmt.Errorf("product %s counted twice", id)
		}
		counts[id] = qty
	}
	return counts, nil
}

func runStocktakeExport(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = fmt.Sprintf("stock-take-%s.pdf", time.Now().Format("2006-01-02"))
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

	products, err := store.New(pool).FetchProducts(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Println("No products in the catalog.")
		return nil
	}

	if err := export.WriteStockTakePDF(products, output); err != nil {
		return err
	}

	fmt.Printf("Stock take checklist exported to %s.\n", output)
	return nil
}

func runStocktakeRecord(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")
	if category == "" {
		return fmt.Errorf("--category is required")
	}
	counts, err := parseCounts(args)
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

	id, err := store.New(pool).InsertStockTake(ctx, category, counts, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("Stock take for %s recorded (%d products, id %s).\n", category, len(counts), id)
	return nil
}

func runStocktakeShow(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")
	if category == "" {
		return fmt.Errorf("--category is required")
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

	take, err := store.New(pool).FetchMostRecentStockTake(ctx, category)
	if err != nil {
		return err
	}
	if take == nil {
		fmt.Printf("No stock take recorded for %s.\n", category)
		return nil
	}

	var counts map[string]decimal.Decimal
	if err := json.Unmarshal(take.Take, &counts); err != nil {
		return fmt.Errorf("decoding stock take %s: %w", take.ID, err)
	}
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("Stock take for %s, taken %s\n\n", category, take.Date.Format("2006-01-02 15:04"))
	for _, id := range ids {
		fmt.Printf("%-36s %s\n", id, counts[id].String())
	}
	return nil
}
