package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RunLogName is the file created inside the log directory for every bootstrap run.
const RunLogName = "radlab-launcher.log"

// InitRunLog installs a global zap logger that appends to <logDir>/radlab-launcher.log.
// Subprocess output and step failures go there in full, the console only
// gets the short colored messages. The returned func flushes the logger.
func InitRunLog(logDir string, debug bool) (func(), error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory %s: %w", logDir, err)
	}

	logFile := filepath.Join(logDir, RunLogName)
	cfg := zap.NewDevelopmentConfig()
	cfg.Level.SetLevel(zapcore.InfoLevel)
	if debug {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}
	cfg.OutputPaths = []string{logFile}
	cfg.ErrorOutputPaths = []string{logFile}
	cfg.DisableStacktrace = true

	root, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build run logger: %w", err)
	}
	restore := zap.ReplaceGlobals(root)
	Debug("[DEBUG] Writing run log to %s\n", logFile)

	return func() {
		_ = root.Sync()
		restore()
	}, nil
}

// Run returns the sugared run logger. Before InitRunLog it discards everything.
func Run() *zap.SugaredLogger {
	return zap.S()
}
