package cli

import (
	"github.com/spf13/cobra"

	"github.com/groundupworks/yksp/commands"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Android backup archive commands",
}

var backupExtractCmd = &cobra.Command{
	Use:   "extract <file.ab> <dir>",
	Short: "Extract an adb backup archive",
	Long:  `Unpacks an unencrypted archive written by 'adb backup' into a directory.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.BackupExtractRequest{
			File: args[0],
			Dir:  args[1],
		}
		return printResponse(commands.BackupExtractCommand(req))
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupExtractCmd)
}
