package cli

import (
	"github.com/spf13/cobra"

	"github.com/groundupworks/yksp/commands"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Manage applications on devices",
	Long:  `Install, launch, terminate, clear and uninstall applications on connected devices.`,
}

var appsLaunchCmd = &cobra.Command{
	Use:   "launch [package]",
	Short: "Launch an app on a device",
	Long:  `Launches the launcher activity of an app on the specified device (e.g., "com.example.app").`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.AppRequest{DeviceID: deviceId, PackageName: args[0]}
		return printResponse(commands.LaunchAppCommand(cmd.Context(), req))
	},
}

var appsTerminateCmd = &cobra.Command{
	Use:   "terminate [package]",
	Short: "Terminate an app on a device",
	Long:  `Force-stops an app on the specified device.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.AppRequest{DeviceID: deviceId, PackageName: args[0]}
		return printResponse(commands.TerminateAppCommand(cmd.Context(), req))
	},
}

var appsInstallCmd = &cobra.Command{
	Use:   "install [apk]",
	Short: "Install an APK on a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.AppRequest{DeviceID: deviceId, APKPath: args[0]}
		return printResponse(commands.InstallAppCommand(cmd.Context(), req))
	},
}

var appsUninstallCmd = &cobra.Command{
	Use:   "uninstall [package]",
	Short: "Uninstall an app from a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.AppRequest{DeviceID: deviceId, PackageName: args[0]}
		return printResponse(commands.UninstallAppCommand(cmd.Context(), req))
	},
}

var appsClearCmd = &cobra.Command{
	Use:   "clear [package]",
	Short: "Wipe the data of an app",
	Long:  `Clears the data of an app on the specified device with 'pm clear'.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.AppRequest{DeviceID: deviceId, PackageName: args[0]}
		return printResponse(commands.ClearAppDataCommand(cmd.Context(), req))
	},
}

func init() {
	rootCmd.AddCommand(appsCmd)

	// add apps subcommands
	appsCmd.AddCommand(appsLaunchCmd)
	appsCmd.AddCommand(appsTerminateCmd)
	appsCmd.AddCommand(appsInstallCmd)
	appsCmd.AddCommand(appsUninstallCmd)
	appsCmd.AddCommand(appsClearCmd)

	// apps command flags
	appsLaunchCmd.Flags().StringVar(&deviceId, "device", "", "ID of the device to launch app on")
	appsTerminateCmd.Flags().StringVar(&deviceId, "device", "", "ID of the device to terminate app on")
	appsInstallCmd.Flags().StringVar(&deviceId, "device", "", "ID of the device to install the app on")
	appsUninstallCmd.Flags().StringVar(&deviceId, "device", "", "ID of the device to uninstall the app from")
	appsClearCmd.Flags().StringVar(&deviceId, "device", "", "ID of the device to clear app data on")
}
