package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groundupworks/yksp/commands"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the view hierarchy of the current screen",
	Long:  `Dumps the views on screen through uiautomator. The json format prints the view tree, the text format prints one line per view as saved in screen dumps.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.DumpUIRequest{
			DeviceID: deviceId,
			Format:   dumpFormat,
		}

		response := commands.DumpUICommand(cmd.Context(), req)
		if dumpFormat == "text" && response.Status == "ok" {
			if dump, ok := response.Data.(commands.DumpUIResponse); ok {
				fmt.Print(dump.Text)
				return nil
			}
		}
		return printResponse(response)
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().StringVar(&deviceId, "device", "", "ID of the device to dump the view hierarchy from")
	dumpCmd.Flags().StringVarP(&dumpFormat, "format", "f", "json", "Output format (json or text)")
}
