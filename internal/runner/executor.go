package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/vk/gridsweep/internal/sweep"
)

// OutputDirArg is the argument name carrying a task's output directory.
const OutputDirArg = "output_dir"

// waitDelay bounds how long a cancelled child may keep its pipes open.
const waitDelay = 5 * time.Second

// ExitCodeError reports a child process that exited with a non-zero status.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("simulation exited with status %d", e.Code)
}

// BuildArgs returns the arguments for one task: output_dir first, then every
// parameter of a in order.
func BuildArgs(outputDir string, a sweep.Assignment) []string {
	args := make([]string, 0, a.Len()+1)
	args = append(args, OutputDirArg+"="+outputDir)
	for name, v := range a.All() {
		args = append(args, name+"="+sweep.FormatValue(v))
	}
	return args
}

// Executor runs the simulation executable. The child inherits the current
// environment and working directory; its output streams go to Stdout and
// Stderr.
type Executor struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecutor creates an Executor writing to the process's own streams.
func NewExecutor() *Executor {
	return &Executor{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Execute runs execCmd with args and waits for it. A non-zero exit status is
// returned as an *ExitCodeError; failing to start the command, or
// cancellation of ctx, is returned as a plain error.
func (e *Executor) Execute(ctx context.Context, execCmd string, args []string) error {
	if execCmd == "" {
		return fmt.Errorf("executable command is empty")
	}

	cmd := exec.CommandContext(ctx, execCmd, args...)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start command: %w", err)
	}

	err := cmd.Wait()
	if ctx.Err() != nil {
		return fmt.Errorf("execution cancelled: %w", ctx.Err())
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitCodeError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("failed to execute command: %w", err)
	}
	return nil
}

// ExitCode maps an Execute result to a process exit status: 0 for nil, the
// child's status for an *ExitCodeError, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var codeErr *ExitCodeError
	if errors.As(err, &codeErr) {
		return codeErr.Code
	}
	return 1
}
