package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"butcherdesk/internal/auth"
	"butcherdesk/internal/logger"
	"butcherdesk/internal/store"
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a staff account awaiting admin approval",
	Long: `Register a new account with the hosted auth backend and create its user
record. New accounts start unapproved; an administrator approves them before
they can use the admin tooling.

Required environment variables:
  SUPABASE_URL      - Hosted auth project URL
  SUPABASE_ANON_KEY - Hosted auth public API key
  DATABASE_URL      - Postgres connection string`,
	Example: `  butcherdesk signup --email staff@example.co.uk --name "J Smith"`,
	RunE:    runSignup,
}

func init() {
	rootCmd.AddCommand(signupCmd)

	signupCmd.Flags().String("email", "", "Account email address")
	signupCmd.Flags().String("name", "", "Display name")
	signupCmd.Flags().String("password", "", "Account password (prompted when omitted)")
}

func runSignup(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("signup")

	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireAuth(); err != nil {
		return err
	}

	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")
	password, _ := cmd.Flags().GetString("password")

	reader := bufio.NewReader(os.Stdin)
	if email == "" {
		fmt.Print("Email: ")
		line, _ := reader.ReadString('\n')
		email = strings.TrimSpace(line)
	}
	if name == "" {
		fmt.Print("Name: ")
		line, _ := reader.ReadString('\n')
		name = strings.TrimSpace(line)
	}
	if password == "" {
		fmt.Print("Password: ")
		line, _ := reader.ReadString('\n')
		password = strings.TrimSpace(line)
	}
	if email == "" || name == "" || password == "" {
		return fmt.Errorf("email, name, and password are required")
	}

	svc, err := auth.NewService(auth.Config{
		BaseURL: cfg.SupabaseURL,
		AnonKey: cfg.SupabaseAnonKey,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	user, err := svc.SignUp(ctx, email, password, name)
	if err != nil {
		return err
	}

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := store.New(pool).InsertUser(ctx, user.ID, name, email); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Could not create user row")
		fmt.Println("Account created, but the user record could not be written; ask an administrator to add it.")
		return nil
	}

	fmt.Printf("Thanks for signing up, %s! The account is now waiting for admin approval.\n", name)
	return nil
}
