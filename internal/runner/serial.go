package runner

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/vk/gridsweep/internal/ctxlog"
	"github.com/vk/gridsweep/internal/fsutil"
	"github.com/vk/gridsweep/internal/notify"
	"github.com/vk/gridsweep/internal/sweep"
)

var (
	// ErrNoOutputDir is returned when SerialOptions.OutputDir is empty.
	ErrNoOutputDir = errors.New("output directory not specified")
	// ErrNoExecCmd is returned when SerialOptions.ExecCmd is empty.
	ErrNoExecCmd = errors.New("must specify an executable command")
)

// SerialOptions configures RunSerial.
type SerialOptions struct {
	OutputDir string
	ExecCmd   string
	Executor  *Executor
	Reporter  notify.Reporter
	// Workers is the number of simulations run at once. Values below 1 mean
	// one, which runs emissions strictly in order.
	Workers int
}

// Summary counts the outcome of a serial sweep.
type Summary struct {
	Total   int
	Ran     int
	Skipped int
	Failed  int
}

type localTask struct {
	id  int
	dir string
	a   sweep.Assignment
}

// pool runs local tasks on a fixed number of workers.
type pool struct {
	exe     *Executor
	execCmd string

	mu      sync.Mutex // guards summary, fatal and rep
	summary *Summary
	fatal   error
	rep     notify.Reporter
}

// RunSerial expands scan and runs every emission, each in its own 0-based
// subdirectory of opts.OutputDir. Emissions whose directory already exists
// are skipped with a warning; failing simulations are logged and the sweep
// moves on. Only expansion errors, directory errors and cancellation abort
// the sweep.
func RunSerial(ctx context.Context, scan *sweep.Scan, opts SerialOptions) (*Summary, error) {
	logger := ctxlog.FromContext(ctx)

	if opts.OutputDir == "" {
		return nil, ErrNoOutputDir
	}
	if opts.ExecCmd == "" {
		return nil, ErrNoExecCmd
	}

	params, err := scan.Expand()
	if err != nil {
		return nil, err
	}
	if err := fsutil.EnsureDir(opts.OutputDir); err != nil {
		return nil, err
	}

	p := &pool{
		exe:     opts.Executor,
		execCmd: opts.ExecCmd,
		summary: &Summary{Total: len(params)},
		rep:     opts.Reporter,
	}
	if p.exe == nil {
		p.exe = NewExecutor()
	}
	if p.rep == nil {
		p.rep = notify.Nop{}
	}
	workers := max(opts.Workers, 1)

	logger.Info("🚀 Starting serial sweep...", "tasks", len(params), "workers", workers, "output_dir", opts.OutputDir)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	readyChan := make(chan localTask)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(runCtx, readyChan, cancel, i)
		}()
	}

feed:
	for i, a := range params {
		dir := filepath.Join(opts.OutputDir, strconv.Itoa(i))
		if fsutil.Exists(dir) {
			logger.Warn("Output directory already exists, skipping.", "task", i, "output_dir", dir)
			p.mu.Lock()
			p.summary.Skipped++
			p.mu.Unlock()
			continue
		}
		select {
		case readyChan <- localTask{id: i, dir: dir, a: a}:
		case <-runCtx.Done():
			break feed
		}
	}
	close(readyChan)
	wg.Wait()

	if p.fatal != nil {
		return p.summary, p.fatal
	}
	if err := ctx.Err(); err != nil {
		return p.summary, err
	}

	s := p.summary
	logger.Info("🏁 Serial sweep finished.", "ran", s.Ran, "skipped", s.Skipped, "failed", s.Failed)
	return s, nil
}

func (p *pool) worker(ctx context.Context, readyChan <-chan localTask, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for t := range readyChan {
		if ctx.Err() != nil {
			continue
		}
		taskLogger := logger.With("workerID", workerID, "task", t.id)

		if err := fsutil.CreateFreshDir(t.dir); err != nil {
			p.mu.Lock()
			if p.fatal == nil {
				p.fatal = err
			}
			p.mu.Unlock()
			cancel()
			continue
		}

		taskLogger.Info("Running simulation.", "output_dir", t.dir, "params", t.a.String())
		p.mu.Lock()
		p.rep.TaskStarted(ctx, t.id, t.a)
		p.mu.Unlock()

		err := p.exe.Execute(ctx, p.execCmd, BuildArgs(t.dir, t.a))

		p.mu.Lock()
		p.rep.TaskFinished(ctx, t.id, ExitCode(err), err)
		p.summary.Ran++
		if err != nil && ctx.Err() == nil {
			p.summary.Failed++
		}
		p.mu.Unlock()

		if err != nil && ctx.Err() == nil {
			taskLogger.Error("Simulation failed.", "error", err)
		}
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}
