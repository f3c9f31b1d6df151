package cli

import (
	"fmt"

	"github.com/felixgeelhaar/upkeep/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/upkeep/internal/shared/infrastructure/migrations"
	"github.com/spf13/cobra"
)

var rollbackSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back schema migrations",
	Long: `Apply pending schema migrations. Storage is migrated on every start, so
this is mostly useful with --rollback, which PostgreSQL supports.

Examples:
  upkeep migrate
  upkeep migrate --rollback 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		c := app.Container
		out := cmd.OutOrStdout()

		if rollbackSteps > 0 {
			if c.DBDriver != database.DriverPostgres {
				return fmt.Errorf("rollback is only supported on PostgreSQL, not %s", c.DBDriver)
			}
			if err := migrations.RollbackPostgres(c.Config.Database.URL, rollbackSteps); err != nil {
				return err
			}
			fmt.Fprintf(out, "Rolled back %d migration(s)\n", rollbackSteps)
			return nil
		}

		dbCfg := database.Config{
			URL:        c.Config.Database.URL,
			SQLitePath: c.Config.Database.SQLitePath,
		}
		if err := migrations.Up(cmd.Context(), c.DB, dbCfg, Logger()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Schema is up to date (%s)\n", c.DBDriver)
		return nil
	},
}

func init() {
	migrateCmd.Flags().IntVar(&rollbackSteps, "rollback", 0, "number of migrations to roll back")
	rootCmd.AddCommand(migrateCmd)
}
