// Package main is the entry point for ashactl, the operations CLI for
// ASHA Connect deployments. It bootstraps the first admin account,
// inspects the offline sync queue, and drives manual sync runs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ashaconnect/ashaconnect/internal/auth"
	"github.com/ashaconnect/ashaconnect/internal/config"
	"github.com/ashaconnect/ashaconnect/internal/localstore"
	"github.com/ashaconnect/ashaconnect/internal/model"
	"github.com/ashaconnect/ashaconnect/internal/repository"
	syncworker "github.com/ashaconnect/ashaconnect/internal/sync"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "ashactl",
		Short:        "Operations CLI for ASHA Connect",
		SilenceUsage: true,
		Long: `ashactl manages an ASHA Connect deployment from the command line.

Configuration is read from the same environment variables as the API
server (DATABASE_URL, LOCAL_DB_PATH, and friends).`,
	}

	rootCmd.AddCommand(
		newBootstrapAdminCmd(),
		newSyncCmd(),
		newQueueCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// cliLogger returns a quiet logger for library code invoked by commands.
func cliLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newBootstrapAdminCmd() *cobra.Command {
	var username, password, name string

	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create the first admin account in the central database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(password) < 8 {
				return fmt.Errorf("password must be at least 8 characters")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			repo, err := repository.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer repo.Close()

			hash, err := auth.HashPassword(password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			now := time.Now().UTC()
			user := &model.User{
				ID:           uuid.NewString(),
				Username:     username,
				PasswordHash: hash,
				Name:         name,
				Role:         model.RoleAdmin,
				Active:       true,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := repo.CreateUser(ctx, user); err != nil {
				return fmt.Errorf("create admin: %w", err)
			}

			fmt.Printf("admin %q created (id %s)\n", username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&password, "password", "", "admin password (min 8 characters)")
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("password")

	return cmd
}

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Inspect and drive the offline sync queue",
	}
	cmd.AddCommand(newSyncStatusCmd(), newSyncRunCmd(), newSyncRetryCmd())
	return cmd
}

func openStore(cfg *config.Config) (*localstore.Store, error) {
	store, err := localstore.Open(cfg.LocalDBPath, cliLogger())
	if err != nil {
		return nil, fmt.Errorf("open local store %s: %w", cfg.LocalDBPath, err)
	}
	return store, nil
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync queue counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			status, err := store.Status(cmd.Context())
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func newSyncRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one sync cycle against the central database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			repo, err := repository.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer repo.Close()

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			worker := syncworker.NewWorker(store, repo, cliLogger(), nil, syncworker.Options{
				Interval:  cfg.SyncIntervalDuration(),
				Retention: cfg.RetentionWindow(),
			})
			if err := worker.ProcessOnce(ctx); err != nil {
				return err
			}

			status, err := store.Status(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("sync cycle complete: %d pending, %d failed\n", status.Pending, status.Failed)
			return nil
		},
	}
}

func newSyncRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Requeue permanently failed records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.ResetFailed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("requeued %d failed records\n", n)
			return nil
		},
	}
}

func newQueueCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List records waiting in the sync queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.PendingRecords(cmd.Context(), limit, time.Now())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tOP\tPRIORITY\tRETRIES\tCREATED")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					rec.ID,
					rec.RecordType,
					rec.Operation,
					rec.Priority,
					rec.RetryCount,
					rec.CreatedAt.Format(time.RFC3339),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum records to list")
	return cmd
}
