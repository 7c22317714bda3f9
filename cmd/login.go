package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"butcherdesk/internal/auth"
	"butcherdesk/internal/logger"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify a user's credentials and approval status",
	Long: `Sign in against the hosted auth backend and report the account's details
and approval status. Accounts awaiting approval can authenticate but should
not be using the admin tooling yet.

Required environment variables:
  SUPABASE_URL      - Hosted auth project URL
  SUPABASE_ANON_KEY - Hosted auth public API key`,
	Example: `  butcherdesk login --email staff@example.co.uk`,
	RunE:    runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().String("email", "", "Account email address")
	loginCmd.Flags().String("password", "", "Account password (prompted when omitted)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("login")

	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireAuth(); err != nil {
		return err
	}

	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	reader := bufio.NewReader(os.Stdin)
	if email == "" {
		fmt.Print("Email: ")
		line, _ := reader.ReadString('\n')
		email = strings.TrimSpace(line)
	}
	if password == "" {
		fmt.Print("Password: ")
		line, _ := reader.ReadString('\n')
		password = strings.TrimSpace(line)
	}
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}

	svc, err := auth.NewService(auth.Config{
		BaseURL: cfg.SupabaseURL,
		AnonKey: cfg.SupabaseAnonKey,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	user, err := svc.Login(ctx, email, password)
	if err != nil {
		return err
	}
	// A CLI run has no session to keep; end it before exiting.
	defer svc.Logout(ctx)

	fmt.Printf("Signed in as %s (id %s).\n", user.Email, user.ID)

	data, err := svc.FetchUserData(ctx, user.ID)
	if err != nil {
		log.Warn().Err(err).Msg("Could not load user record")
		fmt.Println("Warning: the account has no user record yet.")
		return nil
	}

	if data.Approved {
		fmt.Println("Account is approved.")
	} else {
		fmt.Println("Account is awaiting approval by an administrator.")
	}
	return nil
}
