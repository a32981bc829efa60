package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/vk/gridsweep/internal/ctxlog"
	"github.com/vk/gridsweep/internal/fsutil"
	"github.com/vk/gridsweep/internal/manifest"
	"github.com/vk/gridsweep/internal/notify"
)

// TaskOptions configures RunTask.
type TaskOptions struct {
	ManifestPath string
	// TaskID is the 1-based scheduler task id.
	TaskID   int
	Executor *Executor
	Reporter notify.Reporter
}

// RunTask runs the task with opts.TaskID from the manifest. It fails when the
// id is out of range, the manifest cannot be read, or the task's output
// directory already exists.
func RunTask(ctx context.Context, opts TaskOptions) error {
	logger := ctxlog.FromContext(ctx).With("task", opts.TaskID)

	m, err := manifest.Read(opts.ManifestPath)
	if err != nil {
		return err
	}
	a, err := m.Task(opts.TaskID)
	if err != nil {
		return err
	}

	dir := filepath.Join(m.OutputDir, strconv.Itoa(opts.TaskID))
	if err := fsutil.CreateFreshDir(dir); err != nil {
		return fmt.Errorf("task %d: %w, aborting", opts.TaskID, err)
	}

	exe := opts.Executor
	if exe == nil {
		exe = NewExecutor()
	}
	rep := opts.Reporter
	if rep == nil {
		rep = notify.Nop{}
	}

	logger.Info("Running simulation.", "output_dir", dir, "params", a.String())
	rep.TaskStarted(ctx, opts.TaskID, a)
	err = exe.Execute(ctx, m.ExecCmd, BuildArgs(dir, a))
	rep.TaskFinished(ctx, opts.TaskID, ExitCode(err), err)
	if err != nil {
		logger.Error("Simulation failed.", "error", err)
		return err
	}
	logger.Info("Simulation finished.")
	return nil
}
