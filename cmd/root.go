package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"radlab-launcher/internal/config"
	"radlab-launcher/internal/logger"
)

var (
	// debug enables cyan debug output and debug-level entries in the run log.
	debug bool
	// configPath is the optional launcher.yaml layered over the built-in defaults.
	configPath string
	// workDir is where requirements.txt and the rad/ directory are looked up.
	workDir string
)

// rootCmd is the base command for the CLI tool `radlab-launcher`.
// Invoked without a subcommand it runs the full bootstrap.
var rootCmd = &cobra.Command{
	Use:   "radlab-launcher",                                          // The name of the CLI tool
	Short: "Install the rad command line tool and its pre-requisites", // Short description shown in help output
	Long: `Installs the python dependencies of the rad tool, its pre-requisites
(terraform, the Google Cloud SDK and kubectl) and registers the rad command.

Every step runs in order; the first failure stops the run.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true, // A failed step is not a usage error
	SilenceErrors: true, // Execute prints the error itself

	// PersistentPreRun is a hook that runs before any subcommand.
	// Here, we initialize the logger based on the debug flag.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(debug) // Set up logging (verbose if --debug is true)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBootstrap(cmd)
	},
}

// Execute runs the CLI and exits non-zero on any error.
// It's the entry point for the CLI when invoked by the user.
func Execute() {
	// Ctrl-C or SIGTERM cancels the context, which kills the running subprocess.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("[ERROR] %v\n", err)
		stop() // os.Exit skips deferred calls
		os.Exit(1)
	}
}

// init registers the global flags. Subcommands register themselves in their own files.
func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "launcher.yaml", "Path to an optional configuration file")
	rootCmd.PersistentFlags().StringVar(&workDir, "workdir", "", "Directory holding requirements.txt and rad/ (default: current directory)")
	rootCmd.Flags().BoolVar(&rollback, "rollback", false, "Remove what this run installed if a step fails")
}

// loadConfig resolves the working directory and reads the configuration.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	dir := workDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return config.Config{}, fmt.Errorf("determine working directory: %w", err)
		}
		dir = wd
	}
	return config.LoadConfig(configPath, dir, cmd.Flags().Changed("config"))
}
