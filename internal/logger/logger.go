package logger

import (
	"github.com/fatih/color" // Import the fatih/color package for colored console output
)

// Define colorized printing functions for the launcher's console output.
// These are package-level variables holding functions that behave like fmt.Printf,
// but with text colored for the log level. They write to color.Output at call time,
// so redirecting color.Output captures everything printed here.

// Info logs informational messages in green color.
// Used for step progress such as "[INFO] Terraform...".
var Info = color.New(color.FgGreen).PrintfFunc()

// Warn logs warning messages in bright magenta color.
// Used when the launcher recovers on its own, e.g. the ~/bin fallback or an incomplete rollback.
var Warn = color.New(color.FgHiMagenta).PrintfFunc()

// Error logs error messages in red color.
// Used for failed steps and for the "INSTALLATION FAILED" phase notice.
var Error = color.New(color.FgRed).PrintfFunc()

// Banner prints the ">>>> INSTALLATION STARTED/COMPLETED" phase notices
// in bold bright cyan so phase boundaries stand out between subprocess output.
var Banner = color.New(color.FgHiCyan, color.Bold).PrintfFunc()

// Debug logs debug messages in cyan color if enabled, otherwise is a no-op.
// It starts out as a no-op so packages can log before the CLI has parsed its flags.
// Init swaps it for a printing function when --debug is set.
var Debug = func(format string, a ...any) {}

// Init initializes the logger package, specifically enabling or disabling debug logging.
// Parameters:
// - enableDebug: boolean flag to turn debug messages on or off.
// When enabled, Debug prints messages in cyan color.
// When disabled, Debug silently ignores debug logs.
func Init(enableDebug bool) {
	if enableDebug {
		// Assign Debug to print cyan-colored debug messages.
		Debug = color.New(color.FgCyan).PrintfFunc()
	} else {
		// Assign Debug to a no-op function that ignores all debug logs.
		Debug = func(format string, a ...any) {}
	}
}
