package cli

import (
	"github.com/spf13/cobra"

	"github.com/tickethelp/repair-service/internal/persistence"
)

// NewMigrateCommand returns `migrate up|down|status`.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply, roll back or inspect the embedded database migrations.`,
	}

	cmd.AddCommand(
		newMigrationCommand(persistence.MigrateUp, "Run all pending migrations"),
		newMigrationCommand(persistence.MigrateDown, "Roll back the latest migration"),
		newMigrationCommand(persistence.MigrateStatus, "Show migration status"),
	)
	return cmd
}

func newMigrationCommand(direction persistence.MigrationDirection, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(direction),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()
			return persistence.RunMigrationCommand(cmd.Context(), rt.pg.PoolHandle(), direction, rt.logger)
		},
	}
}
