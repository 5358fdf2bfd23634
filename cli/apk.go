package cli

import (
	"github.com/spf13/cobra"

	"github.com/groundupworks/yksp/commands"
)

var apkCmd = &cobra.Command{
	Use:   "apk [file]",
	Short: "Inspect an APK",
	Long:  `Prints the package name and version of an APK using aapt. Without an argument the first APK in the working directory is used.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.APKRequest{}
		if len(args) == 1 {
			req.Path = args[0]
		}
		return printResponse(commands.APKCommand(cmd.Context(), req))
	},
}

func init() {
	rootCmd.AddCommand(apkCmd)
}
