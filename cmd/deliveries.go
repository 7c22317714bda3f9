package cmd

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"butcherdesk/internal/store"
	"butcherdesk/pkg/models"
)

var deliveriesCmd = &cobra.Command{
	Use:   "deliveries",
	Short: "Log and review goods-in deliveries",
	Long: `Record supplier deliveries at the door, with the traceability details the
inspectors ask for, and review a week's goods-in history.

Required environment variables:
  DATABASE_URL - Postgres connection string`,
}

var deliveriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the goods-in records for a date's week",
	Long:  `Print every delivery logged in the Monday-started week containing the date.`,
	Example: `  # This week's deliveries
  butcherdesk deliveries list

  # The week containing a date
  butcherdesk deliveries list --date 2024-01-05`,
	RunE: runDeliveriesList,
}

var deliveriesRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Log a goods-in delivery",
	Example: `  butcherdesk deliveries record --product 6f1c... --quantity 12 \
    --supplier "Hill Farm" --batch-code 4471 --vehicle-temp 2.1 --product-temp 1.4 \
    --driver "D Jones" --plate AB12CDE --origin UK --use-by 2024-01-12 --red-tractor`,
	RunE: runDeliveriesRecord,
}

func init() {
	rootCmd.AddCommand(deliveriesCmd)
	deliveriesCmd.AddCommand(deliveriesListCmd, deliveriesRecordCmd)

	deliveriesListCmd.Flags().String("date", "", "Any date in the week (format: YYYY-MM-DD, default: today)")

	deliveriesRecordCmd.Flags().String("date", "", "Delivery date (format: YYYY-MM-DD, default: today)")
	deliveriesRecordCmd.Flags().String("product", "", "Catalog product ID received")
	deliveriesRecordCmd.Flags().String("quantity", "0", "Quantity received")
	deliveriesRecordCmd.Flags().String("supplier", "", "Supplier name")
	deliveriesRecordCmd.Flags().String("notes", "", "Free-form notes")
	deliveriesRecordCmd.Flags().String("vehicle-temp", "", "Vehicle temperature on arrival")
	deliveriesRecordCmd.Flags().String("product-temp", "", "Product temperature on arrival")
	deliveriesRecordCmd.Flags().String("driver", "", "Delivery driver name")
	deliveriesRecordCmd.Flags().String("plate", "", "Vehicle registration")
	deliveriesRecordCmd.Flags().String("batch-code", "", "Supplier batch code")
	deliveriesRecordCmd.Flags().String("origin", "", "Country/farm of origin")
	deliveriesRecordCmd.Flags().String("kill-date", "", "Slaughter date (format: YYYY-MM-DD)")
	deliveriesRecordCmd.Flags().String("use-by", "", "Use-by date (format: YYYY-MM-DD)")
	deliveriesRecordCmd.Flags().String("slaughter-number", "", "Slaughterhouse approval number")
	deliveriesRecordCmd.Flags().String("cut-number", "", "Cutting plant approval number")
	deliveriesRecordCmd.Flags().Bool("red-tractor", false, "Red Tractor assured")
	deliveriesRecordCmd.Flags().Bool("rspca", false, "RSPCA assured")
	deliveriesRecordCmd.Flags().Bool("organic", false, "Organic assured")
}

func runDeliveriesList(cmd *cobra.Command, args []string) error {
	date, err := dateFlag(cmd)
	if err != nil {
		return err
	}
	day, _ := time.Parse("2006-01-02", date)

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

	deliveries, err := store.New(pool).FetchDeliveriesByWeek(ctx, day)
	if err != nil {
		return err
	}
	if len(deliveries) == 0 {
		fmt.Printf("No deliveries logged in the week of %s.\n", date)
		return nil
	}

	for _, d := range deliveries {
		fmt.Printf("%s  %-20s %-36s qty %-8s batch %s\n",
			d.Date, d.Supplier, d.ProductID, d.Quantity.String(), d.BatchCode)
	}
	fmt.Printf("\n%d deliveries.\n", len(deliveries))
	return nil
}

func optionalDateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s format. Use YYYY-MM-DD: %w", name, err)
	}
	return parsed, nil
}

func runDeliveriesRecord(cmd *cobra.Command, args []string) error {
	date, err := dateFlag(cmd)
	if err != nil {
		return err
	}

	qtyRaw, _ := cmd.Flags().GetString("quantity")
	qty, err := decimal.NewFromString(qtyRaw)
	if err != nil {
		return fmt.Errorf("invalid quantity %q: %w", qtyRaw, err)
	}

	d := models.Delivery{Date: date, Quantity: qty}
	d.ProductID, _ = cmd.Flags().GetString("product")
	d.Supplier, _ = cmd.Flags().GetString("supplier")
	d.Notes, _ = cmd.Flags().GetString("notes")
	d.VehicleTemperature, _ = cmd.Flags().GetString("vehicle-temp")
	d.ProductTemperature, _ = cmd.Flags().GetString("product-temp")
	d.DriverName, _ = cmd.Flags().GetString("driver")
	d.LicensePlate, _ = cmd.Flags().GetString("plate")
	d.BatchCode, _ = cmd.Flags().GetString("batch-code")
	d.Origin, _ = cmd.Flags().GetString("origin")
	d.SlaughterNumber, _ = cmd.Flags().GetString("slaughter-number")
	d.CutNumber, _ = cmd.Flags().GetString("cut-number")
	d.RedTractor, _ = cmd.Flags().GetBool("red-tractor")
	d.RSPCA, _ = cmd.Flags().GetBool("rspca")
	d.OrganicAssured, _ = cmd.Flags().GetBool("organic")

	if d.KillDate, err = optionalDateFlag(cmd, "kill-date"); err != nil {
		return err
	}
	if d.UseBy, err = optionalDateFlag(cmd, "use-by"); err != nil {
		return err
	}
	if d.ProductID == "" && d.Supplier == "" {
		return fmt.Errorf("at least one of --product and --supplier is required")
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

	id, err := store.New(pool).InsertDelivery(ctx, d)
	if err != nil {
		return err
	}

	fmt.Printf("Delivery recorded for %s (id %s).\n", date, id)
	return nil
}
