package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"library-circulation/internal/adapters/persistence/models"
	"library-circulation/internal/config"
	"library-circulation/internal/core/domain"
	"library-circulation/internal/core/services"
	"library-circulation/internal/pkg/jwt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	rootCmd = &cobra.Command{
		Use:   "circulationctl",
		Short: "Maintenance commands for the library circulation backend",
		Long: `circulationctl runs the circulation jobs on demand: schema migration,
seeding the shelving grid, counter reconciliation, reservation expiry and
overdue marking. It reads the same environment as the server.`,
		SilenceUsage: true,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE:  runMigrate,
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Load section grids, categories and default policy settings",
		RunE:  runSeed,
	}
	seedFile string

	reconcileCmd = &cobra.Command{
		Use:   "reconcile",
		Short: "Recount catalog copy counters from the copy registry",
		RunE:  runReconcile,
	}
	reconcileBookID uint

	expireCmd = &cobra.Command{
		Use:   "expire-reservations",
		Short: "Expire pending reservations past their hold window",
		RunE:  runExpire,
	}

	overdueCmd = &cobra.Command{
		Use:   "mark-overdue",
		Short: "Mark borrowed loans past their due date as overdue",
		RunE:  runOverdue,
	}

	dispatchCmd = &cobra.Command{
		Use:   "dispatch-outbox",
		Short: "Deliver pending circulation notifications once",
		RunE:  runDispatch,
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for local testing",
		RunE:  runToken,
	}
	tokenUserID   uint
	tokenUsername string
	tokenRole     string
	tokenMinutes  int
)

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "section grid file (defaults to SECTION_GRID_FILE)")
	reconcileCmd.Flags().UintVar(&reconcileBookID, "book-id", 0, "reconcile a single title")

	tokenCmd.Flags().UintVar(&tokenUserID, "user-id", 1, "subject user ID")
	tokenCmd.Flags().StringVar(&tokenUsername, "username", "librarian", "subject username")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(domain.RoleLibrarian), "PATRON, LIBRARIAN or ADMIN")
	tokenCmd.Flags().IntVar(&tokenMinutes, "minutes", 60, "token lifetime in minutes")

	rootCmd.AddCommand(migrateCmd, seedCmd, reconcileCmd, expireCmd, overdueCmd, dispatchCmd, tokenCmd)
}

// connect loads configuration and opens the database
func connect() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

// container connects and wires the service graph
func container() (*services.Container, error) {
	cfg, db, err := connect()
	if err != nil {
		return nil, err
	}
	return services.NewContainer(db, cfg.ServiceOptions()), nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	_, db, err := connect()
	if err != nil {
		return err
	}
	defer config.CloseDatabase()

	if err := models.AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	fmt.Println("✅ Database migration completed")
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, db, err := connect()
	if err != nil {
		return err
	}
	defer config.CloseDatabase()

	file := seedFile
	if file == "" {
		file = cfg.Files.SectionGridFile
	}
	return config.NewSeeder(db, file, cfg.Policy()).Run(cmd.Context())
}

func runReconcile(cmd *cobra.Command, args []string) error {
	svc, err := container()
	if err != nil {
		return err
	}
	defer config.CloseDatabase()

	if reconcileBookID != 0 {
		result, err := svc.Reconcile.ReconcileBook(cmd.Context(), reconcileBookID)
		if err != nil {
			return err
		}
		return printJSON(result)
	}

	summary, err := svc.Reconcile.ReconcileAll(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(summary)
}

func runExpire(cmd *cobra.Command, args []string) error {
	svc, err := container()
	if err != nil {
		return err
	}
	defer config.CloseDatabase()

	n, err := svc.Reservations.ExpireStale(cmd.Context())
	if err != nil {
		return err
	}
	if _, err := svc.Outbox.Dispatch(cmd.Context()); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️ outbox dispatch failed: %v\n", err)
	}
	fmt.Printf("⏰ Expired %d reservations\n", n)
	return nil
}

func runOverdue(cmd *cobra.Command, args []string) error {
	svc, err := container()
	if err != nil {
		return err
	}
	defer config.CloseDatabase()

	n, err := svc.Circulation.MarkOverdue(cmd.Context())
	if err != nil {
		return err
	}
	if _, err := svc.Outbox.Dispatch(cmd.Context()); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️ outbox dispatch failed: %v\n", err)
	}
	fmt.Printf("📅 Marked %d loans overdue\n", n)
	return nil
}

func runDispatch(cmd *cobra.Command, args []string) error {
	svc, err := container()
	if err != nil {
		return err
	}
	defer config.CloseDatabase()

	n, err := svc.Outbox.Dispatch(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("📨 Delivered %d notifications\n", n)
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	role := domain.Role(strings.ToUpper(tokenRole))
	switch role {
	case domain.RolePatron, domain.RoleLibrarian, domain.RoleAdmin:
	default:
		return fmt.Errorf("unknown role %q", tokenRole)
	}

	token, err := jwt.GenerateAccessToken(tokenUserID, tokenUsername, string(role), cfg.JWT.Secret, tokenMinutes)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
