package cli

import (
	"github.com/spf13/cobra"

	"github.com/groundupworks/yksp/commands"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run system diagnostics",
	Long:  `Reports where adb and aapt were found and their versions, for troubleshooting`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(commands.DoctorCommand(GetVersion()))
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
