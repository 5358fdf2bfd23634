package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groundupworks/yksp/commands"
	"github.com/groundupworks/yksp/testcase"
)

var testcaseCmd = &cobra.Command{
	Use:   "testcase [flags] <script>",
	Short: "Run one test script against one device",
	Long: `Runs every test of a script against the device with the given serial and
writes screenshots, screen dumps and a unittest style report under --root.
'yksp run' starts this command once per script and device.

Exits with status 1 when a test fails and 2 when an option is missing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := testcase.Options{
			Package:     testcaseOpts.pkg,
			Serial:      testcaseOpts.serial,
			Root:        testcaseOpts.root,
			Logs:        testcaseOpts.logs,
			Screenshots: testcaseOpts.screenshots,
			Screendumps: testcaseOpts.screendumps,
		}
		if len(args) > 0 {
			opts.Script = args[0]
		}

		var err error
		var result *testcase.Result
		if len(args) > 1 {
			err = &testcase.UsageError{Message: "only one script may be specified"}
		} else {
			result, err = testcase.Main(cmd.Context(), commands.GetBridge(), opts, cmd.OutOrStdout())
		}

		var usageErr *testcase.UsageError
		if errors.As(err, &usageErr) {
			return testcaseUsage(cmd, usageErr.Message)
		}
		if err != nil {
			return err
		}

		if !result.Successful() {
			return &ExitError{Code: 1}
		}
		return nil
	},
}

// testcaseUsage prints message with the option table and exits with the
// usage status, which the session reads as "could not run".
func testcaseUsage(cmd *cobra.Command, message string) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "\nError:\n%s\n", message)
	testcase.PrintUsage(cmd.ErrOrStderr())
	return &ExitError{Code: testcase.UsageExitCode}
}

func init() {
	rootCmd.AddCommand(testcaseCmd)

	testcaseCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return testcaseUsage(cmd, err.Error())
	})
	testcaseCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		testcase.PrintUsage(cmd.OutOrStdout())
	})

	flags := testcaseCmd.Flags()
	flags.StringVarP(&testcaseOpts.pkg, "package", "p", "", "package name of the application")
	flags.StringVarP(&testcaseOpts.serial, "serial", "s", "", "serial number of the device to run this test case on")
	flags.StringVarP(&testcaseOpts.root, "root", "r", "", "root directory to save the results of this test case")
	flags.StringVarP(&testcaseOpts.logs, "logs", "l", "", "filename to save the test logs, stdout when empty")
	flags.StringVarP(&testcaseOpts.screenshots, "screenshots", "m", "", "folder name to save the screenshots")
	flags.StringVarP(&testcaseOpts.screendumps, "screendumps", "n", "", "folder name to save the screendumps")
}
