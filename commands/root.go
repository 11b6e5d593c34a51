// Package commands is the leadflow command line: the API server and
// one-shot scan commands for external schedulers.
package commands

import (
	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leadflow",
		Short: "Lead lifecycle messaging engine",
		Long: `leadflow sends WhatsApp messages when leads enter or stall in a
pipeline stage, and delivers scheduled reminders.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewScanTimeoutsCommand())
	cmd.AddCommand(NewSendDueRemindersCommand())
	cmd.AddCommand(NewTokenCommand())
	cmd.AddCommand(NewSecretCommand())

	return cmd
}
