package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/groundupworks/yksp/commands"
	"github.com/groundupworks/yksp/daemon"
	"github.com/groundupworks/yksp/server"
	"github.com/groundupworks/yksp/session"
)

const defaultServerAddress = "localhost:12000"

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Server management commands",
	Long:  `Commands for managing the yksp JSON-RPC server.`,
}

var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the yksp server",
	Long:  `Starts the JSON-RPC server on /rpc and /ws. Sessions started with session_run use the working directory of the server.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr := cmd.Flag("listen").Value.String()
		if listenAddr == "" {
			listenAddr = defaultServerAddress
		}

		// GetBool/GetString cannot fail for defined flags
		enableCORS, _ := cmd.Flags().GetBool("cors")
		isDaemon, _ := cmd.Flags().GetBool("daemon")

		workDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}

		if isDaemon && !daemon.IsChild() {
			child, err := daemon.Daemonize(workDir)
			if err != nil {
				return fmt.Errorf("failed to start daemon: %w", err)
			}
			if child != nil {
				fmt.Printf("Server daemon spawned, attempting to listen on %s\n", listenAddr)
				return nil
			}
		}

		manager := server.NewSessionManager(newSessionFactory(workDir))
		return server.New(manager, enableCORS).ListenAndServe(cmd.Context(), listenAddr)
	},
}

// newSessionFactory builds sessions from the current configuration, running
// each test case as a child process of this binary.
func newSessionFactory(workDir string) server.SessionFactory {
	return func(params server.RunParams, observer session.Observer) (*session.Session, error) {
		cfg := *commands.GetConfig()
		if params.Archive != "" {
			cfg.Session.Archive = params.Archive
		}
		dir := workDir
		if params.WorkDir != "" {
			dir = params.WorkDir
		}

		bridge := commands.GetBridge()
		tests, err := session.NewExecTestCaseRunner(bridge.Runner(), globalArgs()...)
		if err != nil {
			return nil, err
		}

		return session.New(&cfg, bridge, tests,
			session.WithWorkDir(dir),
			session.WithObserver(observer),
			session.WithShutdownHook(commands.GetShutdownHook()),
		), nil
	}
}

var serverKillCmd = &cobra.Command{
	Use:   "kill",
	Short: "Stop the daemonized yksp server",
	Long:  `Connects to the server and sends a shutdown command via JSON-RPC.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// GetString cannot fail for defined flags
		addr, _ := cmd.Flags().GetString("listen")
		if addr == "" {
			addr = defaultServerAddress
		}

		err := daemon.KillServer(addr)
		if err != nil {
			return err
		}

		fmt.Printf("Server shutdown command sent successfully\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// add server subcommands
	serverCmd.AddCommand(serverStartCmd)
	serverCmd.AddCommand(serverKillCmd)

	// server start flags
	serverStartCmd.Flags().String("listen", "", "Address to listen on (e.g., 'localhost:12000' or '0.0.0.0:13000')")
	serverStartCmd.Flags().Bool("cors", false, "Enable CORS support")
	serverStartCmd.Flags().BoolP("daemon", "d", false, "Run server in daemon mode (background)")

	// server kill flags
	serverKillCmd.Flags().String("listen", "", fmt.Sprintf("Address of server to kill (default: %s)", defaultServerAddress))
}
