package installer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"radlab-launcher/internal/logger"
)

// outputTailLines bounds how much subprocess output is copied into an error message.
// The full output always goes to the run log.
const outputTailLines = 20

// Executor runs an external program and returns its combined output.
type Executor interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ShellExecutor runs commands on the host with exec.CommandContext.
// Env entries are appended to the launcher's own environment.
type ShellExecutor struct {
	Env []string
}

func (e ShellExecutor) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}

	line := strings.Join(cmd.Args, " ")
	logger.Debug("[DEBUG] Running command: %s\n", line)
	output, err := cmd.CombinedOutput()
	logger.Run().Debugw("command finished", "cmd", line, "dir", dir, "output", string(output), "error", err)
	if err != nil {
		return output, fmt.Errorf("%s: %w\nOutput: %s", line, err, tail(output, outputTailLines))
	}
	return output, nil
}

// tail returns the last n lines of output.
func tail(output []byte, n int) string {
	lines := bytes.Split(bytes.TrimRight(output, "\n"), []byte("\n"))
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return string(bytes.Join(lines, []byte("\n")))
}
