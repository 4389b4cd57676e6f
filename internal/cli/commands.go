package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ledger/internal/auth"
	"ledger/internal/config"
	"ledger/internal/core"
	"ledger/internal/csvio"
	applog "ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/storage"
)

// NewRootCommand creates the ledgerctl command with all subcommands
// registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Administer a ledger database",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newUserCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newExportCommand())

	return rootCmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
				return fmt.Errorf("migrating %s: %w", cfg.SQLiteDBPath, err)
			}
			version, dirty, err := storage.MigrationVersion(cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d (dirty=%t)\n", version, dirty)
			return nil
		},
	}
}

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUserCreateCommand())
	return cmd
}

func newUserCreateCommand() *cobra.Command {
	var in services.UserInput
	var admin bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account without an existing session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv()
			if err != nil {
				return err
			}
			defer env.close()

			if admin {
				in.Role = string(core.RoleAdmin)
			}
			u, err := env.svc.Users.Bootstrap(cmd.Context(), in)
			if err != nil {
				return errors.New(core.Message(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s, %s)\n", u.ID, u.Email, u.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&in.Password, "password", "", "account password (required)")
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the ADMIN role")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newImportCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a CSV file as the given user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			env, err := openEnv()
			if err != nil {
				return err
			}
			defer env.close()

			ctx, err := env.actAs(cmd.Context(), email)
			if err != nil {
				return err
			}
			result, err := env.svc.Imports.Import(ctx, f)
			if err != nil {
				return importError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "batch %s: %d created\n", result.BatchID, result.CreatedCount)
			for _, row := range result.Rows {
				if row.Reason != "" {
					fmt.Fprintf(out, "  line %d: %s (%s)\n", row.Row, row.Status, row.Reason)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "user", "", "email of the owning user (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newExportCommand() *cobra.Command {
	var email, format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exportFormat, err := services.ParseExportFormat(format)
			if err != nil {
				return errors.New(core.Message(err))
			}

			env, err := openEnv()
			if err != nil {
				return err
			}
			defer env.close()

			ctx, err := env.actAs(cmd.Context(), email)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := env.svc.Imports.Export(ctx, w, exportFormat); err != nil {
				return errors.New(core.Message(err))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "user", "", "email of the owning user (required)")
	cmd.Flags().StringVar(&format, "format", "csv", "csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

// cmdEnv is the store and services behind one ledgerctl invocation.
// Events are never published from the CLI.
type cmdEnv struct {
	repo *storage.SQLiteRepository
	svc  *services.Services
}

func openEnv() (*cmdEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: applog.ComponentCLI,
		Output:    os.Stderr,
	})

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, err
	}
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	return &cmdEnv{repo: repo, svc: services.New(cfg, repo, nil, tokens, logger)}, nil
}

// actAs returns ctx carrying the identity of the user with email.
func (e *cmdEnv) actAs(ctx context.Context, email string) (context.Context, error) {
	u, err := e.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("no user with email %q", email)
	}
	if err != nil {
		return nil, err
	}
	return core.WithIdentity(ctx, core.Identity{UserID: u.ID, Role: u.Role}), nil
}

func (e *cmdEnv) close() {
	_ = e.svc.Close()
}

// importError expands a CSV structure error into one problem per line.
func importError(err error) error {
	var perr *csvio.ParseError
	if errors.As(err, &perr) {
		return fmt.Errorf("%s:\n  %s", core.Message(err), strings.Join(perr.Details, "\n  "))
	}
	return errors.New(core.Message(err))
}
