package cli

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/groundupworks/yksp/commands"
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Take a screenshot of a connected device",
	Long:  `Takes a screenshot of a specified device (using its ID) and saves it locally as a PNG or JPEG file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.ScreenshotRequest{
			DeviceID:   deviceId,
			Format:     screenshotFormat,
			Quality:    screenshotJpegQuality,
			OutputPath: screenshotOutputPath,
		}

		response := commands.ScreenshotCommand(cmd.Context(), req)

		// Handle stdout output for binary data
		if screenshotOutputPath == "-" && response.Status == "ok" {
			if screenshotResp, ok := response.Data.(commands.ScreenshotResponse); ok && screenshotResp.Data != "" {
				imageBytes, err := base64.StdEncoding.DecodeString(screenshotResp.Data)
				if err != nil {
					return fmt.Errorf("failed to decode image data: %v", err)
				}
				_, err = os.Stdout.Write(imageBytes)
				if err != nil {
					return fmt.Errorf("failed to write to stdout: %v", err)
				}
				return nil
			}
		}

		return printResponse(response)
	},
}

func init() {
	rootCmd.AddCommand(screenshotCmd)

	screenshotCmd.Flags().StringVar(&deviceId, "device", "", "ID of the device to take screenshot from")
	screenshotCmd.Flags().StringVarP(&screenshotOutputPath, "output", "o", "", "Output file path for screenshot (e.g., screen.png, or '-' for stdout)")
	screenshotCmd.Flags().StringVarP(&screenshotFormat, "format", "f", "png", "Output format for screenshot (png or jpeg)")
	screenshotCmd.Flags().IntVarP(&screenshotJpegQuality, "quality", "q", 90, "JPEG quality (1-100, only applies if format is jpeg)")
}
