package cli

import (
	"github.com/spf13/cobra"

	"github.com/groundupworks/yksp/commands"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Device commands",
	Long:  `Commands for inspecting individual devices.`,
}

var deviceInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Get device info",
	Long:  `Prints the manufacturer, model and SDK level of a device, or every system property with --all.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.InfoRequest{
			DeviceID: deviceId,
			All:      showAllProps,
		}
		return printResponse(commands.InfoCommand(cmd.Context(), req))
	},
}

func init() {
	rootCmd.AddCommand(deviceCmd)

	deviceCmd.AddCommand(deviceInfoCmd)

	deviceInfoCmd.Flags().StringVar(&deviceId, "device", "", "ID of the device to get info from")
	deviceInfoCmd.Flags().BoolVar(&showAllProps, "all", false, "print every system property")
}
