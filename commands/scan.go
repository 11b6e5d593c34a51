package commands

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

func NewScanTimeoutsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan-timeouts",
		Short: "Run one stage-timeout scan and print its summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return writeJSON(cmd.OutOrStdout(), a.engine.OnTimeoutScanTick(cmd.Context()))
		},
	}
}

func NewSendDueRemindersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "send-due-reminders",
		Short: "Send every pending reminder that is due and print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return writeJSON(cmd.OutOrStdout(), a.engine.SendDueReminders(cmd.Context()))
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
