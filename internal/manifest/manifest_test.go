package manifest

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gridsweep/internal/sweep"
	"github.com/zclconf/go-cty/cty"
)

func sample() *Manifest {
	return &Manifest{
		Params: []sweep.Assignment{
			sweep.NewAssignment([]string{"zeta", "alpha", "mode"}, []cty.Value{cty.NumberFloatVal(0.1), cty.NumberIntVal(10), cty.StringVal("fast")}),
			sweep.NewAssignment([]string{"zeta", "alpha", "mode"}, []cty.Value{cty.NumberFloatVal(-2.5), cty.NumberIntVal(20), cty.True}),
		},
		ExecCmd:   "/opt/sim/bin/run",
		OutputDir: "/scratch/out",
	}
}

func TestEncode_KeepsParameterOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sample()))

	out := buf.String()
	assert.Contains(t, out, `"exec_cmd": "/opt/sim/bin/run"`)
	assert.Contains(t, out, `"output_dir": "/scratch/out"`)
	assert.Contains(t, out, `"zeta": 0.1`)
	assert.Less(t, strings.Index(out, `"zeta"`), strings.Index(out, `"alpha"`), "keys keep assignment order")
	assert.Less(t, strings.Index(out, `"alpha"`), strings.Index(out, `"mode"`))
}

func TestWriteRead_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Write(path, sample()))

	m, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/sim/bin/run", m.ExecCmd)
	assert.Equal(t, "/scratch/out", m.OutputDir)
	require.Len(t, m.Params, 2)
	assert.Equal(t, "zeta=0.1 alpha=10 mode=fast", m.Params[0].String())
	assert.Equal(t, "zeta=-2.5 alpha=20 mode=true", m.Params[1].String())
}

func TestTask(t *testing.T) {
	m := sample()

	a, err := m.Task(1)
	require.NoError(t, err)
	assert.Equal(t, "zeta=0.1 alpha=10 mode=fast", a.String())

	for _, id := range []int{0, 3, -1} {
		_, err := m.Task(id)
		assert.ErrorIs(t, err, ErrTaskOutOfRange, "id %d", id)
	}
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "could not open manifest")

	_, err = Decode(strings.NewReader(`{"params": [{"a": [1, 2]}]}`))
	assert.ErrorContains(t, err, "must be a number, string or bool")

	_, err = Decode(strings.NewReader(`{"params": [3]}`))
	assert.ErrorContains(t, err, "must be a JSON object")

	_, err = Decode(strings.NewReader(`not json`))
	assert.ErrorContains(t, err, "failed to decode manifest")
}

func TestEncodeParams(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeParams(&buf, sample().Params))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "["))
	assert.Contains(t, out, `"mode": "fast"`)
	assert.Contains(t, out, `"mode": true`)
	assert.NotContains(t, out, "exec_cmd")
}

func TestEncodeParamsYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeParamsYAML(&buf, sample().Params))

	want := `- zeta: 0.1
  alpha: 10
  mode: fast
- zeta: -2.5
  alpha: 20
  mode: true
`
	assert.Equal(t, want, buf.String())
}
