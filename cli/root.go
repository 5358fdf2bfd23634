package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/groundupworks/yksp/commands"
	"github.com/groundupworks/yksp/config"
	"github.com/groundupworks/yksp/utils"
)

const version = "dev"

// GetVersion returns the version reported by --version and doctor.
func GetVersion() string {
	return version
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "yksp",
	Short: "An Android device testing harness",
	Long: `Installs an APK on every connected Android device, runs the UI test scripts
against each of them and collects logcat output, screenshots, screen dumps and
app data backups into a timestamped results directory.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// ExitError ends the process with Code. Err, when set, is printed to stderr.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// loadConfig reads the ini file and applies command line overrides.
func loadConfig(cmd *cobra.Command, args []string) error {
	utils.SetVerbose(verbose)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if adbPath != "" {
		cfg.Tools.Adb = adbPath
	}
	if aaptPath != "" {
		cfg.Tools.Aapt = aaptPath
	}
	commands.SetConfig(cfg)
	utils.Verbose("Using adb=%s aapt=%s", cfg.Tools.Adb, cfg.Tools.Aapt)
	return nil
}

// globalArgs repeats the persistent flags for child processes of this binary.
func globalArgs() []string {
	var args []string
	if verbose {
		args = append(args, "--verbose")
	}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	if adbPath != "" {
		args = append(args, "--adb", adbPath)
	}
	if aaptPath != "" {
		args = append(args, "--aapt", aaptPath)
	}
	return args
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", fmt.Sprintf("path to the configuration file (default ./%s when present)", config.DefaultFileName))
	rootCmd.PersistentFlags().StringVar(&adbPath, "adb", "", "path to the adb binary")
	rootCmd.PersistentFlags().StringVar(&aaptPath, "aapt", "", "path to the aapt binary")
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// printJson is a helper function to print JSON responses
func printJson(data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		utils.Error("failed to encode response: %v", err)
		os.Exit(1)
	}
	fmt.Println(string(jsonData))
}

// printResponse prints the response and turns an error status into an error.
func printResponse(response *commands.CommandResponse) error {
	printJson(response)
	if response.Status == "error" {
		return fmt.Errorf("%s", response.Error)
	}
	return nil
}
