package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/solatis/vesmapper/internal/core/db"
)

var migrateStatus bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply catalog database migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "show migration status instead of applying")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	if env.cfg.Catalog.DatabaseURL == "" {
		return fmt.Errorf("--db-url required")
	}

	database, err := db.Open(env.cfg.Catalog.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if !migrateStatus {
		if err := db.MigrateUp(database); err != nil {
			return err
		}
		env.logger.Info("migrations applied")
		return nil
	}

	statuses, err := db.MigrateStatus(database)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MIGRATION\tSTATUS\tAPPLIED AT\tDURATION")
	for _, s := range statuses {
		state, appliedAt, duration := "pending", "-", "-"
		if s.Applied {
			state = "applied"
			duration = (time.Duration(s.ExecutionMs) * time.Millisecond).String()
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format(time.RFC3339)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, state, appliedAt, duration)
	}
	return w.Flush()
}
