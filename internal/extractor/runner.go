package extractor

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// maxLoggedStderr caps how much captured stderr ends up in log records.
const maxLoggedStderr = 8 << 10

// RunResult carries the captured output of a successful tool invocation.
// Output is captured in full rather than streamed: volume is bounded by one
// document or one batch folder.
type RunResult struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner executes external commands. The indirection exists so the facade
// can be exercised in tests with a stub instead of a real JVM.
type Runner interface {
	Run(ctx context.Context, args []string, workDir string) (*RunResult, error)
}

// execRunner runs commands as child processes under a bounded timeout.
type execRunner struct {
	timeout time.Duration
	logger  *logrus.Logger
}

// NewRunner returns a Runner that executes real child processes, forcibly
// terminating any that exceed the given timeout.
func NewRunner(timeout time.Duration, logger *logrus.Logger) Runner {
	return &execRunner{timeout: timeout, logger: logger}
}

func (r *execRunner) Run(ctx context.Context, args []string, workDir string) (*RunResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	if workDir != "" {
		if _, err := os.Stat(workDir); err == nil {
			cmd.Dir = workDir
		}
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.WithFields(logrus.Fields{
		"command": strings.Join(args, " "),
		"timeout": r.timeout,
	}).Debug("Running external extraction tool")

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			r.logger.WithFields(logrus.Fields{
				"command":     args[0],
				"duration_ms": duration.Milliseconds(),
			}).Error("External tool exceeded timeout and was killed")
			return nil, &TimeoutError{Input: lastPathArg(args), Timeout: r.timeout}
		}

		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		r.logger.WithFields(logrus.Fields{
			"command":     args[0],
			"exit_code":   exitCode,
			"duration_ms": duration.Milliseconds(),
			"stderr":      truncate(stderr.String(), maxLoggedStderr),
		}).Error("External tool failed")
		return nil, &ToolError{ExitCode: exitCode, Stderr: stderr.String()}
	}

	r.logger.WithFields(logrus.Fields{
		"command":      args[0],
		"duration_ms":  duration.Milliseconds(),
		"stdout_bytes": stdout.Len(),
		"stderr_bytes": stderr.Len(),
	}).Debug("External tool completed")

	return &RunResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}, nil
}

// lastPathArg picks the input path out of an argument vector for error
// reporting. The input path is the first argument after the jar path.
func lastPathArg(args []string) string {
	for i, arg := range args {
		if arg == "-jar" && i+2 < len(args) {
			return args[i+2]
		}
	}
	return args[0]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
