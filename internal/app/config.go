package app

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/vk/gridsweep/internal/batch"
	"github.com/vk/gridsweep/internal/manifest"
)

// Command names one gridsweep subcommand.
type Command string

const (
	CommandExpand   Command = "expand"
	CommandBatch    Command = "batch"
	CommandSerial   Command = "serial"
	CommandRunTask  Command = "run-task"
	CommandSkeleton Command = "skeleton"
)

// Commands lists every subcommand in the order the usage text shows them.
var Commands = []Command{CommandExpand, CommandBatch, CommandSerial, CommandRunTask, CommandSkeleton}

// Config holds all the necessary configuration for an App instance to run.
// Which fields matter depends on Command.
type Config struct {
	Command Command

	SweepPath string // hcl file or directory
	OutputDir string
	ExecCmd   string

	// expand
	OutputFormat string

	// batch
	Scheduler   string
	BatchParams []string

	// serial
	Jobs int

	// run-task
	ManifestPath string
	TaskID       int

	// skeleton
	SkeletonPath   string
	SkeletonParams []string

	NotifyURL       string
	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// NewConfig validates cfg for its command and returns a copy with defaults
// applied.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Command {
	case CommandExpand:
		if cfg.SweepPath == "" {
			return nil, errors.New("a sweep path is required")
		}
		switch cfg.OutputFormat {
		case "":
			cfg.OutputFormat = "text"
		case "text", "json", "yaml":
		default:
			return nil, fmt.Errorf("invalid format %q: must be 'text', 'json' or 'yaml'", cfg.OutputFormat)
		}
	case CommandBatch, CommandSerial:
		if cfg.SweepPath == "" {
			return nil, errors.New("a sweep path is required")
		}
		if cfg.ExecCmd == "" {
			return nil, errors.New("must specify an executable command with -exec")
		}
		if cfg.OutputDir == "" {
			return nil, errors.New("must specify an output directory with -out")
		}
		if cfg.Command == CommandSerial {
			if cfg.Jobs < 0 {
				return nil, fmt.Errorf("jobs must not be negative, got %d", cfg.Jobs)
			}
			cfg.Jobs = max(cfg.Jobs, 1)
		}
		if cfg.Command == CommandBatch {
			if cfg.Scheduler == "" {
				cfg.Scheduler = batch.SGE.String()
			}
			if _, err := batch.ParseScheduler(cfg.Scheduler); err != nil {
				return nil, err
			}
		}
	case CommandRunTask:
		if cfg.TaskID < 1 {
			return nil, fmt.Errorf("task id must be a positive integer, got %d", cfg.TaskID)
		}
		if cfg.ManifestPath == "" {
			cfg.ManifestPath = manifest.FileName
		}
	case CommandSkeleton:
		if cfg.SkeletonPath == "" {
			return nil, errors.New("must specify the output file with -o")
		}
		if (cfg.SweepPath == "") == (len(cfg.SkeletonParams) == 0) {
			return nil, errors.New("specify either a sweep path or -params, not both")
		}
	case "":
		return nil, errors.New("a command is required")
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}

	return &cfg, nil
}

// EnvDefaults are the settings that may come from the environment. Command
// line flags take precedence over them.
type EnvDefaults struct {
	LogLevel        string `env:"GRIDSWEEP_LOG_LEVEL" envDefault:"info"`
	LogFormat       string `env:"GRIDSWEEP_LOG_FORMAT" envDefault:"json"`
	HealthcheckPort int    `env:"GRIDSWEEP_HEALTHCHECK_PORT" envDefault:"0"`
	Scheduler       string `env:"GRIDSWEEP_SCHEDULER" envDefault:"sge"`
	NotifyURL       string `env:"GRIDSWEEP_NOTIFY_URL"`
}

// LoadEnvDefaults reads EnvDefaults from environ, a map of variable names to
// values.
func LoadEnvDefaults(environ map[string]string) (EnvDefaults, error) {
	var d EnvDefaults
	if err := env.ParseWithOptions(&d, env.Options{Environment: environ}); err != nil {
		return d, fmt.Errorf("parse env: %w", err)
	}
	return d, nil
}
