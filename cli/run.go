package cli

import (
	"github.com/spf13/cobra"

	"github.com/groundupworks/yksp/commands"
	"github.com/groundupworks/yksp/config"
	"github.com/groundupworks/yksp/session"
	"github.com/groundupworks/yksp/utils"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every test script on every connected device",
	Long: `Finds the APK in the working directory and the test scripts in the scripts
directory, then installs the app on each connected device and runs every script
there. Logcat output, screenshots, screen dumps, test logs and the app data of
each run are saved under results/<timestamp>/<model>-[<serial>]/<script>.

A missing APK, script or device stops the run without an error status.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := runConfig(commands.GetConfig())

		tests, err := session.NewExecTestCaseRunner(commands.GetBridge().Runner(), globalArgs()...)
		if err != nil {
			return err
		}

		s := session.New(cfg, commands.GetBridge(), tests,
			session.WithOutput(cmd.OutOrStdout()),
			session.WithShutdownHook(commands.GetShutdownHook()),
		)
		utils.Verbose("Starting session %s", s.ID())

		summary, err := s.Run(cmd.Context())
		if err != nil {
			if session.IsValidationError(err) {
				utils.Verbose("Session stopped: %v", err)
				return nil
			}
			return err
		}

		if failOnTestFailure && !summary.Successful() {
			return &ExitError{Code: 1}
		}
		return nil
	},
}

// runConfig applies the run flags to a copy of cfg.
func runConfig(cfg *config.Config) *config.Config {
	c := *cfg
	if runScriptsDir != "" {
		c.Paths.Scripts = runScriptsDir
	}
	if runResultsDir != "" {
		c.Paths.Results = runResultsDir
	}
	if runArchive != "" {
		c.Session.Archive = runArchive
	}
	if runNoBackup {
		c.Backup.Disabled = true
	}
	return &c
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runScriptsDir, "scripts", "", "directory holding the test scripts (default scripts)")
	runCmd.Flags().StringVar(&runResultsDir, "results", "", "directory the session directory is created in (default results)")
	runCmd.Flags().StringVar(&runArchive, "archive", "", "bundle the session results into this archive (.zip, .tar.gz, ...)")
	runCmd.Flags().BoolVar(&runNoBackup, "no-backup", false, "skip downloading the app data after each test case")
	runCmd.Flags().BoolVar(&failOnTestFailure, "fail-on-test-failure", false, "exit with status 1 when a test case fails")
}
