// Package batch writes everything a cluster scheduler needs to run a sweep as
// an array job: the params.json manifest and a submission script whose tasks
// each call `gridsweep run-task` with their task id.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/vk/gridsweep/internal/ctxlog"
	"github.com/vk/gridsweep/internal/fsutil"
	"github.com/vk/gridsweep/internal/manifest"
	"github.com/vk/gridsweep/internal/sweep"
)

var (
	// ErrNoOutputDir is returned when Options.OutputDir is empty.
	ErrNoOutputDir = errors.New("output directory not specified")
	// ErrNoExecCmd is returned when Options.ExecCmd is empty.
	ErrNoExecCmd = errors.New("must specify an executable command")
	// ErrNoTasks is returned when the sweep expands to nothing.
	ErrNoTasks = errors.New("sweep produced no tasks")
)

// LogDirName is the directory, inside the output directory, that receives
// scheduler stdout and stderr files.
const LogDirName = "logs"

// Options configures Generate.
type Options struct {
	SweepName   string
	OutputDir   string
	ExecCmd     string
	Scheduler   Scheduler
	BatchParams []string
	// RunnerPath is the gridsweep binary the script invokes for each task.
	// Empty means the running executable.
	RunnerPath string
}

// Result describes the generated files.
type Result struct {
	ManifestPath string
	ScriptPath   string
	NumTasks     int
}

// Generate materializes scan and writes the manifest and the submission
// script into opts.OutputDir, creating it if needed. Nothing is written when
// the options or the scan are invalid.
func Generate(ctx context.Context, scan *sweep.Scan, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	if opts.OutputDir == "" {
		return nil, ErrNoOutputDir
	}
	if opts.ExecCmd == "" {
		return nil, ErrNoExecCmd
	}
	if _, err := opts.Scheduler.templateName(); err != nil {
		return nil, err
	}
	execCmd, err := filepath.Abs(opts.ExecCmd)
	if err != nil {
		return nil, fmt.Errorf("could not resolve command %s: %w", opts.ExecCmd, err)
	}
	if !fsutil.Exists(execCmd) {
		return nil, fmt.Errorf("could not locate command %s", opts.ExecCmd)
	}
	outputDir, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("could not resolve output directory %s: %w", opts.OutputDir, err)
	}
	runnerPath := opts.RunnerPath
	if runnerPath == "" {
		if runnerPath, err = os.Executable(); err != nil {
			return nil, fmt.Errorf("could not determine runner path: %w", err)
		}
	}

	params, err := scan.Expand()
	if err != nil {
		return nil, fmt.Errorf("failed to expand sweep: %w", err)
	}
	if len(params) == 0 {
		return nil, ErrNoTasks
	}
	logger.Info("Sweep expanded.", "tasks", len(params))

	if err := fsutil.EnsureDir(filepath.Join(outputDir, LogDirName)); err != nil {
		return nil, err
	}

	res := &Result{
		ManifestPath: filepath.Join(outputDir, manifest.FileName),
		ScriptPath:   filepath.Join(outputDir, opts.Scheduler.ScriptName()),
		NumTasks:     len(params),
	}

	err = manifest.Write(res.ManifestPath, &manifest.Manifest{
		Params:    params,
		ExecCmd:   execCmd,
		OutputDir: outputDir,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("Manifest written.", "path", res.ManifestPath)

	f, err := os.OpenFile(res.ScriptPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create script %s: %w", res.ScriptPath, err)
	}
	err = RenderScript(f, opts.Scheduler, ScriptContext{
		SweepName:    opts.SweepName,
		JobName:      jobName(opts.SweepName),
		NumTasks:     len(params),
		RunnerPath:   runnerPath,
		ManifestPath: res.ManifestPath,
		OutputDir:    outputDir,
		BatchParams:  opts.BatchParams,
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s script: %w", opts.Scheduler, err)
	}
	logger.Info("Batch script written.", "scheduler", opts.Scheduler.String(), "path", res.ScriptPath)

	return res, nil
}

var unsafeJobChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// jobName turns a sweep name into a scheduler-safe job name.
func jobName(sweepName string) string {
	name := unsafeJobChars.ReplaceAllString(sweepName, "_")
	if name == "" || name == "_" {
		return "gridsweep"
	}
	return name
}
