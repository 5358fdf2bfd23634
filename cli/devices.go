package cli

import (
	"github.com/spf13/cobra"

	"github.com/groundupworks/yksp/commands"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List connected devices",
	Long:  `Lists the Android devices and emulators adb knows about. Devices that are offline or unauthorized are only shown with --all.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(commands.DevicesCommand(cmd.Context(), showAllDevices))
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)

	devicesCmd.Flags().BoolVar(&showAllDevices, "all", false, "show all devices including offline ones")
}
