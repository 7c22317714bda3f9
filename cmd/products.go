package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"butcherdesk/internal/store"
	"butcherdesk/pkg/models"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Inspect and maintain the product catalog",
	Long: `List the product catalog and maintain the fresh-product allow-list that
drives butchers-list aggregation.

Required environment variables:
  DATABASE_URL - Postgres connection string`,
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the product catalog",
	RunE:  runProductsList,
}

var productsSetFreshCmd = &cobra.Command{
	Use:   "set-fresh [product-id]",
	Short: "Flag or unflag a product as fresh produce",
	Example: `  # Add a product to the fresh allow-list
  butcherdesk products set-fresh 6f1c... --fresh

  # Remove it again
  butcherdesk products set-fresh 6f1c... --fresh=false`,
	Args: cobra.ExactArgs(1),
	RunE: runProductsSetFresh,
}

var productsAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a product to the catalog",
	Example: `  butcherdesk products add "Beef Mince" --sage-code F1 --cost 4.20 \
    --stock-category Fresh --sold-as kg --fresh`,
	Args: cobra.ExactArgs(1),
	RunE: runProductsAdd,
}

func init() {
	rootCmd.AddCommand(productsCmd)
	productsCmd.AddCommand(productsListCmd, productsSetFreshCmd, productsAddCmd)

	productsListCmd.Flags().Bool("fresh-only", false, "Only show fresh-flagged products")
	productsSetFreshCmd.Flags().Bool("fresh", true, "Whether the product counts as fresh produce")

	productsAddCmd.Flags().String("sage-code", "", "ERP stock code")
	productsAddCmd.Flags().String("cost", "0", "Unit cost")
	productsAddCmd.Flags().String("stock-category", "", "Category used on stock-take sheets")
	productsAddCmd.Flags().String("product-category", "", "Category used in sales reporting")
	productsAddCmd.Flags().String("supplier", "", "Supplier name")
	productsAddCmd.Flags().String("sold-as", "", "Unit of sale (kg, each, box)")
	productsAddCmd.Flags().Bool("fresh", false, "Whether the product counts as fresh produce")
}

func runProductsList(cmd *cobra.Command, args []string) error {
	freshOnly, _ := cmd.Flags().GetBool("fresh-only")

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

	shown := 0
	for _, p := range products {
		if freshOnly && !p.Fresh {
			continue
		}
		marker := " "
		if p.Fresh {
			marker = "F"
		}
		fmt.Printf("%s  %-36s %-40s %-12s %s\n", marker, p.ID, p.Name, p.SageCode, p.StockCategory)
		shown++
	}
	fmt.Printf("\n%d products.\n", shown)
	return nil
}

func runProductsSetFresh(cmd *cobra.Command, args []string) error {
	fresh, _ := cmd.Flags().GetBool("fresh")
	productID := args[0]

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

	if err := store.New(pool).SetProductFresh(ctx, productID, fresh); err != nil {
		return err
	}

	if fresh {
		fmt.Printf("Product %s flagged as fresh.\n", productID)
	} else {
		fmt.Printf("Product %s removed from the fresh allow-list.\n", productID)
	}
	return nil
}

func runProductsAdd(cmd *cobra.Command, args []string) error {
	costRaw, _ := cmd.Flags().GetString("cost")
	cost, err := decimal.NewFromString(costRaw)
	if err != nil {
		return fmt.Errorf("invalid cost %q: %w", costRaw, err)
	}

	p := models.Product{Name: args[0], Cost: cost}
	p.SageCode, _ = cmd.Flags().GetString("sage-code")
	p.StockCategory, _ = cmd.Flags().GetString("stock-category")
	p.ProductCategory, _ = cmd.Flags().GetString("product-category")
	p.Supplier, _ = cmd.Flags().GetString("supplier")
	p.SoldAs, _ = cmd.Flags().GetString("sold-as")
	p.Fresh, _ = cmd.Flags().GetBool("fresh")

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

	id, err := store.New(pool).InsertProduct(ctx, p)
	if err != nil {
		return err
	}

	fmt.Printf("Product %q added (id %s).\n", p.Name, id)
	return nil
}
