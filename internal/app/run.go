package app

import (
	"context"
	"fmt"

	"github.com/vk/gridsweep/internal/batch"
	"github.com/vk/gridsweep/internal/ctxlog"
	"github.com/vk/gridsweep/internal/hcl"
	"github.com/vk/gridsweep/internal/manifest"
	"github.com/vk/gridsweep/internal/notify"
	"github.com/vk/gridsweep/internal/runner"
	"github.com/vk/gridsweep/internal/skeleton"
	"github.com/vk/gridsweep/internal/sweep"
)

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", a.config.Command)

	if a.config.HealthcheckPort > 0 {
		if err := a.startHealthcheckServer(a.config.HealthcheckPort); err != nil {
			return err
		}
		defer a.closeHealthcheckServer()
	}

	var err error
	switch a.config.Command {
	case CommandExpand:
		err = a.expand(ctx)
	case CommandBatch:
		err = a.batch(ctx)
	case CommandSerial:
		err = a.serial(ctx)
	case CommandRunTask:
		err = a.runTask(ctx)
	case CommandSkeleton:
		err = a.skeleton(ctx)
	default:
		err = fmt.Errorf("unknown command %q", a.config.Command)
	}

	a.logger.Debug("App.Run method finished.", "error", err)
	return err
}

func (a *App) loadSweep(ctx context.Context) (*hcl.Definition, error) {
	a.logger.Debug("Loading sweep.", "path", a.config.SweepPath)
	def, err := a.loader.Load(ctx, a.config.SweepPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load sweep: %w", err)
	}
	a.logger.Info("Sweep loaded.", "sweep", def.Name, "file", def.File, "parameters", len(def.Scan.Parameters()))
	return def, nil
}

func (a *App) expand(ctx context.Context) error {
	def, err := a.loadSweep(ctx)
	if err != nil {
		return err
	}

	if a.config.OutputFormat != "text" {
		params, err := def.Scan.Expand()
		if err != nil {
			return err
		}
		a.logger.Info("Sweep expanded.", "emissions", len(params))
		if a.config.OutputFormat == "yaml" {
			return manifest.EncodeParamsYAML(a.outW, params)
		}
		return manifest.EncodeParams(a.outW, params)
	}

	n := 0
	err = def.Scan.Run(func(p sweep.Assignment) error {
		n++
		_, err := fmt.Fprintln(a.outW, p.String())
		return err
	})
	if err != nil {
		return err
	}
	a.logger.Info("Sweep expanded.", "emissions", n)
	return nil
}

func (a *App) batch(ctx context.Context) error {
	def, err := a.loadSweep(ctx)
	if err != nil {
		return err
	}
	sched, err := batch.ParseScheduler(a.config.Scheduler)
	if err != nil {
		return err
	}

	res, err := batch.Generate(ctx, def.Scan, batch.Options{
		SweepName:   def.Name,
		OutputDir:   a.config.OutputDir,
		ExecCmd:     a.config.ExecCmd,
		Scheduler:   sched,
		BatchParams: a.config.BatchParams,
	})
	if err != nil {
		return fmt.Errorf("failed to generate batch: %w", err)
	}

	fmt.Fprintf(a.outW, "%s %s\n", submitCommand(sched), res.ScriptPath)
	return nil
}

func submitCommand(s batch.Scheduler) string {
	if s == batch.SLURM {
		return "sbatch"
	}
	return "qsub"
}

// reporter returns the progress tracker, chained to a socket.io reporter when
// a notify URL is configured. Callers must Close it.
func (a *App) reporter(ctx context.Context) (notify.Reporter, error) {
	if a.config.NotifyURL != "" {
		remote, err := a.dial(ctx, notify.SocketIOOptions{URL: a.config.NotifyURL, RunID: a.runID})
		if err != nil {
			return nil, fmt.Errorf("failed to connect progress reporter: %w", err)
		}
		a.progress.chain(remote)
	}
	return a.progress, nil
}

func (a *App) serial(ctx context.Context) error {
	def, err := a.loadSweep(ctx)
	if err != nil {
		return err
	}
	total, err := def.Scan.Count()
	if err != nil {
		return err
	}
	a.progress.setTotal(total)

	rep, err := a.reporter(ctx)
	if err != nil {
		return err
	}
	defer rep.Close()

	summary, err := runner.RunSerial(ctx, def.Scan, runner.SerialOptions{
		OutputDir: a.config.OutputDir,
		ExecCmd:   a.config.ExecCmd,
		Executor:  a.executor,
		Reporter:  rep,
		Workers:   a.config.Jobs,
	})
	if err != nil {
		return fmt.Errorf("serial sweep aborted: %w", err)
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d simulations failed", summary.Failed, summary.Ran)
	}
	return nil
}

func (a *App) runTask(ctx context.Context) error {
	a.progress.setTotal(1)
	rep, err := a.reporter(ctx)
	if err != nil {
		return err
	}
	defer rep.Close()

	return runner.RunTask(ctx, runner.TaskOptions{
		ManifestPath: a.config.ManifestPath,
		TaskID:       a.config.TaskID,
		Executor:     a.executor,
		Reporter:     rep,
	})
}

func (a *App) skeleton(ctx context.Context) error {
	names := a.config.SkeletonParams
	if a.config.SweepPath != "" {
		def, err := a.loadSweep(ctx)
		if err != nil {
			return err
		}
		names = def.ParamNames()
	}
	return skeleton.Write(ctx, a.config.SkeletonPath, names)
}
