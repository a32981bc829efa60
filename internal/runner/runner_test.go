package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gridsweep/internal/ctxlog"
	"github.com/vk/gridsweep/internal/manifest"
	"github.com/vk/gridsweep/internal/sweep"
	"github.com/zclconf/go-cty/cty"
)

// recordArgsScript writes its arguments, one per line, to testout.txt in the
// directory passed as output_dir.
const recordArgsScript = `#!/bin/sh
for arg in "$@"; do
  case "$arg" in
    output_dir=*) dir="${arg#output_dir=}" ;;
  esac
done
printf '%s\n' "$@" > "$dir/testout.txt"
echo "ran in $dir"
`

const failingScript = `#!/bin/sh
echo "boom" >&2
exit 3
`

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

// recorder is a notify.Reporter that keeps every event.
type recorder struct {
	mu       sync.Mutex
	started  []int
	finished []int
	codes    []int
}

func (r *recorder) TaskStarted(_ context.Context, id int, _ sweep.Assignment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, id)
}

func (r *recorder) TaskFinished(_ context.Context, id int, code int, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, id)
	r.codes = append(r.codes, code)
}

func (r *recorder) Close() error { return nil }

func quietExecutor() (*Executor, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Executor{Stdout: &buf, Stderr: &buf}, &buf
}

func TestBuildArgs(t *testing.T) {
	a := sweep.NewAssignment(
		[]string{"b", "a", "mode"},
		[]cty.Value{cty.NumberFloatVal(-0.5), cty.NumberIntVal(10), cty.StringVal("fast")},
	)
	assert.Equal(t, []string{"output_dir=/out/3", "b=-0.5", "a=10", "mode=fast"}, BuildArgs("/out/3", a))
}

func TestExecutor(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		exe, out := quietExecutor()
		dir := t.TempDir()
		err := exe.Execute(ctx, writeScript(t, recordArgsScript), []string{"output_dir=" + dir, "x=1"})
		require.NoError(t, err)
		assert.Contains(t, out.String(), "ran in "+dir)
	})

	t.Run("non-zero exit", func(t *testing.T) {
		exe, out := quietExecutor()
		err := exe.Execute(ctx, writeScript(t, failingScript), nil)
		var codeErr *ExitCodeError
		require.ErrorAs(t, err, &codeErr)
		assert.Equal(t, 3, codeErr.Code)
		assert.Equal(t, 3, ExitCode(err))
		assert.Contains(t, out.String(), "boom")
	})

	t.Run("missing executable", func(t *testing.T) {
		exe, _ := quietExecutor()
		err := exe.Execute(ctx, filepath.Join(t.TempDir(), "nope"), nil)
		assert.ErrorContains(t, err, "failed to start command")
		assert.Equal(t, 1, ExitCode(err))
	})

	t.Run("cancelled", func(t *testing.T) {
		exe, _ := quietExecutor()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := exe.Execute(cctx, writeScript(t, recordArgsScript), nil)
		assert.True(t, errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "failed to start command"))
	})
}

func writeManifest(t *testing.T, execCmd string) (path string, outDir string) {
	t.Helper()
	outDir = t.TempDir()
	path = filepath.Join(outDir, manifest.FileName)
	params, err := sweep.New(sweep.Parameters{
		sweep.Numbers("a", 1, 2),
		sweep.Strings("mode", "x"),
	}).Expand()
	require.NoError(t, err)
	require.NoError(t, manifest.Write(path, &manifest.Manifest{
		Params:    params,
		ExecCmd:   execCmd,
		OutputDir: outDir,
	}))
	return path, outDir
}

func TestRunTask(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())

	t.Run("runs the task with its parameters", func(t *testing.T) {
		path, outDir := writeManifest(t, writeScript(t, recordArgsScript))
		exe, _ := quietExecutor()
		rec := &recorder{}

		err := RunTask(ctx, TaskOptions{ManifestPath: path, TaskID: 2, Executor: exe, Reporter: rec})
		require.NoError(t, err)

		got, err := os.ReadFile(filepath.Join(outDir, "2", "testout.txt"))
		require.NoError(t, err)
		assert.Equal(t, "output_dir="+filepath.Join(outDir, "2")+"\na=2\nmode=x\n", string(got))
		assert.Equal(t, []int{2}, rec.started)
		assert.Equal(t, []int{0}, rec.codes)
	})

	t.Run("existing output directory", func(t *testing.T) {
		path, outDir := writeManifest(t, writeScript(t, recordArgsScript))
		require.NoError(t, os.Mkdir(filepath.Join(outDir, "1"), 0o755))
		exe, _ := quietExecutor()

		err := RunTask(ctx, TaskOptions{ManifestPath: path, TaskID: 1, Executor: exe})
		assert.ErrorContains(t, err, "already exists")
	})

	t.Run("task id out of range", func(t *testing.T) {
		path, _ := writeManifest(t, writeScript(t, recordArgsScript))
		for _, id := range []int{0, 3} {
			err := RunTask(ctx, TaskOptions{ManifestPath: path, TaskID: id})
			assert.ErrorIs(t, err, manifest.ErrTaskOutOfRange)
		}
	})

	t.Run("unreadable manifest", func(t *testing.T) {
		err := RunTask(ctx, TaskOptions{ManifestPath: filepath.Join(t.TempDir(), "missing.json"), TaskID: 1})
		assert.ErrorContains(t, err, "could not open manifest")
	})

	t.Run("failing simulation propagates its exit code", func(t *testing.T) {
		path, _ := writeManifest(t, writeScript(t, failingScript))
		exe, _ := quietExecutor()
		rec := &recorder{}

		err := RunTask(ctx, TaskOptions{ManifestPath: path, TaskID: 1, Executor: exe, Reporter: rec})
		assert.Equal(t, 3, ExitCode(err))
		assert.Equal(t, []int{3}, rec.codes)
	})
}

func TestRunSerial(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	scan := sweep.New(sweep.Parameters{
		sweep.Numbers("a", 0, 2.5, 5, 7.5, 10),
		sweep.Numbers("b", 0.1, -0.05, -0.2, -0.35, -0.5),
	})

	t.Run("runs every emission", func(t *testing.T) {
		outDir := filepath.Join(t.TempDir(), "serial")
		exe, _ := quietExecutor()
		rec := &recorder{}

		summary, err := RunSerial(ctx, scan, SerialOptions{
			OutputDir: outDir,
			ExecCmd:   writeScript(t, recordArgsScript),
			Executor:  exe,
			Reporter:  rec,
		})
		require.NoError(t, err)
		assert.Equal(t, &Summary{Total: 25, Ran: 25}, summary)
		for i := range 25 {
			assert.FileExists(t, filepath.Join(outDir, strconv.Itoa(i), "testout.txt"))
		}
		assert.Len(t, rec.started, 25)
		assert.Equal(t, 0, rec.started[0])
	})

	t.Run("skips existing directories", func(t *testing.T) {
		outDir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(outDir, "0"), 0o755))
		require.NoError(t, os.Mkdir(filepath.Join(outDir, "7"), 0o755))
		exe, _ := quietExecutor()

		summary, err := RunSerial(ctx, scan, SerialOptions{
			OutputDir: outDir,
			ExecCmd:   writeScript(t, recordArgsScript),
			Executor:  exe,
		})
		require.NoError(t, err)
		assert.Equal(t, &Summary{Total: 25, Ran: 23, Skipped: 2}, summary)
		assert.NoFileExists(t, filepath.Join(outDir, "0", "testout.txt"))
	})

	t.Run("keeps going after failures", func(t *testing.T) {
		exe, _ := quietExecutor()
		summary, err := RunSerial(ctx, scan, SerialOptions{
			OutputDir: t.TempDir(),
			ExecCmd:   writeScript(t, failingScript),
			Executor:  exe,
		})
		require.NoError(t, err)
		assert.Equal(t, 25, summary.Failed)
	})

	t.Run("parallel workers run every emission once", func(t *testing.T) {
		outDir := t.TempDir()
		rec := &recorder{}

		summary, err := RunSerial(ctx, scan, SerialOptions{
			OutputDir: outDir,
			ExecCmd:   writeScript(t, recordArgsScript),
			Executor:  &Executor{Stdout: io.Discard, Stderr: io.Discard},
			Reporter:  rec,
			Workers:   4,
		})
		require.NoError(t, err)
		assert.Equal(t, &Summary{Total: 25, Ran: 25}, summary)

		started := slices.Clone(rec.started)
		slices.Sort(started)
		want := make([]int, 25)
		for i := range want {
			want[i] = i
		}
		assert.Equal(t, want, started)
		assert.Len(t, rec.finished, 25)

		recorded, err := os.ReadFile(filepath.Join(outDir, "13", "testout.txt"))
		require.NoError(t, err)
		assert.Contains(t, string(recorded), "a=5\nb=-0.35")
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := RunSerial(ctx, scan, SerialOptions{ExecCmd: "x"})
		assert.ErrorIs(t, err, ErrNoOutputDir)
		_, err = RunSerial(ctx, scan, SerialOptions{OutputDir: t.TempDir()})
		assert.ErrorIs(t, err, ErrNoExecCmd)
	})

	t.Run("cancelled context stops the sweep", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		exe, _ := quietExecutor()
		summary, err := RunSerial(cctx, scan, SerialOptions{
			OutputDir: t.TempDir(),
			ExecCmd:   writeScript(t, recordArgsScript),
			Executor:  exe,
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, summary.Ran)
	})
}
