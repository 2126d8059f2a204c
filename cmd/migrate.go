package cmd

import (
	"errors"
	"fmt"

	"geomancer/core/database"
	"geomancer/feature/catalog"
	"geomancer/feature/geomance"

	"github.com/spf13/cobra"
)

var historyColumns = []string{
	"id", "job_key", "filename", "geography", "status", "num_rows", "num_matches",
	"num_missing", "cols_added", "download_url", "error", "created_at", "updated_at", "finished_at",
}

// migrateCmd creates the job history and gazetteer tables.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long:  `Creates the job history and gazetteer tables and reports columns still missing afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.log.Sync()
		if a.db == nil {
			return errors.New("database is not enabled or unreachable")
		}

		if err := geomance.NewHistory(a.db).Migrate(); err != nil {
			return fmt.Errorf("failed to migrate job history: %w", err)
		}
		if err := catalog.NewGazetteerStore(a.db).Migrate(); err != nil {
			return fmt.Errorf("failed to migrate gazetteer: %w", err)
		}

		missing, err := database.MissingColumns(a.db, "geomancer_jobs", historyColumns)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("geomancer_jobs is missing columns: %v", missing)
		}
		a.log.Info("Schema up to date")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}
