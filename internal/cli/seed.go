package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tickethelp/repair-service/internal/persistence"
	"github.com/tickethelp/repair-service/internal/repository"
	"github.com/tickethelp/repair-service/internal/service"
)

// NewSeedCommand returns `seed users|estados`.
func NewSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Provision fixture data",
	}
	cmd.AddCommand(newSeedUsersCommand(), newSeedStatusesCommand())
	return cmd
}

func newSeedUsersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "Create or reset the fixture user of every role",
		Long: `Upserts one user per role (ADMIN, TECH, CLIENT, OWNER) keyed by document.
Existing users get their password, role and flags reset. A failure on one user
is logged and the remaining users are still processed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			provisioning := service.NewProvisioningService(repository.NewStore(rt.pg.PoolHandle()), rt.cfg.Auth.BcryptCost, rt.logger)
			report := provisioning.SeedUsers(cmd.Context(), service.DefaultUserFixtures())

			out := cmd.OutOrStdout()
			for _, doc := range report.Created {
				fmt.Fprintf(out, "created %s\n", doc)
			}
			for _, doc := range report.Updated {
				fmt.Fprintf(out, "updated %s\n", doc)
			}
			failed := make([]string, 0, len(report.Failed))
			for doc := range report.Failed {
				failed = append(failed, doc)
			}
			sort.Strings(failed)
			for _, doc := range failed {
				fmt.Fprintf(out, "failed  %s: %v\n", doc, report.Failed[doc])
			}
			return nil
		},
	}
}

func newSeedStatusesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "estados",
		Aliases: []string{"statuses"},
		Short:   "Re-apply the six-status catalog",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			provisioning := service.NewProvisioningService(repository.NewStore(rt.pg.PoolHandle()), rt.cfg.Auth.BcryptCost, rt.logger)
			if err := provisioning.SeedStatuses(cmd.Context()); err != nil {
				return err
			}

			redis := persistence.NewRedis(rt.cfg.Redis, rt.logger)
			defer redis.Close()
			if err := persistence.NewStatusCache(redis.Client, rt.cfg.Cache.StatusTTL()).Invalidate(cmd.Context()); err != nil {
				rt.logger.Warn("status cache not invalidated", zap.Error(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "status catalog up to date")
			return nil
		},
	}
}
