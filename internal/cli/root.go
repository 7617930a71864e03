package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRootCommand assembles ticketctl.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ticketctl",
		Short:         "Administrative tasks for the repair ticket service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(NewMigrateCommand(), NewSeedCommand())
	return root
}

// Run executes root and returns the process exit code. A failing command is
// logged at error level with its stack.
func Run(ctx context.Context, root *cobra.Command, logger *zap.Logger) int {
	cmd, err := root.ExecuteContextC(ctx)
	if err != nil {
		logger.Error("ticketctl command failed",
			zap.String("command", cmd.CommandPath()),
			zap.Error(err),
			zap.Stack("stacktrace"),
		)
		return 1
	}
	return 0
}
