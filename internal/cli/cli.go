package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/vk/gridsweep/internal/app"
	"github.com/vk/gridsweep/internal/manifest"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// stringList is a flag.Value collecting every occurrence of a repeated flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ", ") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

const mainUsage = `
gridsweep - Expand parameter sweeps and run simulations over them.

Usage:
  gridsweep <command> [options] [arguments]

Commands:
  expand     Print every emission of a sweep.
  batch      Write params.json and an array-job script for SGE or SLURM.
  serial     Run every emission locally, one after another.
  run-task   Run one task of a batch manifest (called by the job script).
  skeleton   Write a main.cpp that accepts the sweep's parameters.

Run 'gridsweep <command> -h' for the options of a command.
`

var commandUsage = map[app.Command]string{
	app.CommandExpand:   "gridsweep expand [options] SWEEP_PATH",
	app.CommandBatch:    "gridsweep batch [options] -exec CMD -out DIR SWEEP_PATH",
	app.CommandSerial:   "gridsweep serial [options] -exec CMD -out DIR SWEEP_PATH",
	app.CommandRunTask:  "gridsweep run-task [options] TASK_ID",
	app.CommandSkeleton: "gridsweep skeleton [options] -o FILE (SWEEP_PATH | -params a,b,c)",
}

// Parse processes command-line arguments with defaults taken from the process
// environment. It returns a populated Config, a boolean indicating if the
// program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	return ParseWithEnv(args, output, environ())
}

func environ() map[string]string {
	m := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}

// ParseWithEnv is Parse with an explicit environment.
func ParseWithEnv(args []string, output io.Writer, env map[string]string) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	if len(args) == 0 || args[0] == "-h" || args[0] == "-help" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(output, mainUsage)
		return nil, true, nil
	}

	cmd := app.Command(args[0])
	if !slices.Contains(app.Commands, cmd) {
		fmt.Fprint(output, mainUsage)
		return nil, false, usageError("unknown command %q", args[0])
	}

	defaults, err := app.LoadEnvDefaults(env)
	if err != nil {
		return nil, false, usageError("%v", err)
	}

	flagSet := flag.NewFlagSet("gridsweep "+string(cmd), flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprintf(output, "\nUsage:\n  %s\n\nOptions:\n", commandUsage[cmd])
		flagSet.PrintDefaults()
	}

	cfg := app.Config{Command: cmd}
	flagSet.StringVar(&cfg.LogLevel, "log-level", defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flagSet.StringVar(&cfg.LogFormat, "log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")
	flagSet.IntVar(&cfg.HealthcheckPort, "healthcheck-port", defaults.HealthcheckPort, "Port for the HTTP health check server. 0 is disabled.")

	var batchParams stringList
	var params string
	switch cmd {
	case app.CommandExpand:
		flagSet.StringVar(&cfg.OutputFormat, "format", "text", "Output format. Options: 'text', 'json' or 'yaml'.")
	case app.CommandBatch:
		flagSet.StringVar(&cfg.ExecCmd, "exec", "", "Simulation executable to run for each task.")
		flagSet.StringVar(&cfg.OutputDir, "out", "", "Output directory for params.json, the job script and task outputs.")
		flagSet.StringVar(&cfg.Scheduler, "scheduler", defaults.Scheduler, "Batch scheduler. Options: 'sge' or 'slurm'.")
		flagSet.Var(&batchParams, "batch-param", "Extra scheduler directive, repeatable (e.g. -batch-param '-l h_rt=01:00:00').")
	case app.CommandSerial:
		flagSet.StringVar(&cfg.ExecCmd, "exec", "", "Simulation executable to run for each emission.")
		flagSet.StringVar(&cfg.OutputDir, "out", "", "Output directory; each emission runs in a numbered subdirectory.")
		flagSet.IntVar(&cfg.Jobs, "jobs", 1, "Number of simulations to run at once.")
		flagSet.StringVar(&cfg.NotifyURL, "notify-url", defaults.NotifyURL, "socket.io server to report progress to. Empty is disabled.")
	case app.CommandRunTask:
		flagSet.StringVar(&cfg.ManifestPath, "manifest", manifest.FileName, "Path to the batch manifest.")
		flagSet.StringVar(&cfg.NotifyURL, "notify-url", defaults.NotifyURL, "socket.io server to report progress to. Empty is disabled.")
	case app.CommandSkeleton:
		flagSet.StringVar(&cfg.SkeletonPath, "o", "", "Output file for the generated program.")
		flagSet.StringVar(&params, "params", "", "Comma separated parameter names, instead of a sweep file.")
	}

	if err := flagSet.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}
	slog.Debug("Arguments parsed successfully.", "command", cmd)

	if flagSet.NArg() > 1 {
		return nil, false, usageError("unexpected arguments: %s", strings.Join(flagSet.Args()[1:], " "))
	}
	positional := flagSet.Arg(0)

	if cmd == app.CommandRunTask {
		if positional == "" {
			flagSet.Usage()
			return nil, false, usageError("run-task requires a task id")
		}
		id, err := strconv.Atoi(positional)
		if err != nil {
			return nil, false, usageError("invalid task id %q", positional)
		}
		cfg.TaskID = id
	} else {
		cfg.SweepPath = positional
	}
	cfg.BatchParams = batchParams
	if params != "" {
		for _, p := range strings.Split(params, ",") {
			cfg.SkeletonParams = append(cfg.SkeletonParams, strings.TrimSpace(p))
		}
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	cfg.Scheduler = strings.ToLower(cfg.Scheduler)

	if cmd != app.CommandRunTask && cmd != app.CommandSkeleton && cfg.SweepPath == "" {
		slog.Debug("No sweep path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
