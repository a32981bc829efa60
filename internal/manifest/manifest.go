// Package manifest reads and writes params.json, the record that ties a
// materialized sweep to the executable that runs it. Each entry of "params"
// is one emission of the sweep, in emission order, so the 1-based index of an
// entry is the scheduler task id that runs it.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vk/gridsweep/internal/sweep"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// FileName is the manifest's file name inside a batch output directory.
const FileName = "params.json"

// ErrTaskOutOfRange is returned by Task for ids outside 1..len(Params).
var ErrTaskOutOfRange = errors.New("task id out of range")

// Manifest is the content of params.json.
type Manifest struct {
	Params    []sweep.Assignment
	ExecCmd   string
	OutputDir string
}

// wireManifest is the JSON layout of a Manifest.
type wireManifest struct {
	Params    []wireAssignment `json:"params"`
	ExecCmd   string           `json:"exec_cmd"`
	OutputDir string           `json:"output_dir"`
}

// wireAssignment encodes an assignment as a JSON object whose keys keep the
// assignment's order.
type wireAssignment struct {
	sweep.Assignment
}

func (w wireAssignment) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for name, v := range w.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := ctyjson.Marshal(v, v.Type())
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (w *wireAssignment) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("parameter set must be a JSON object")
	}

	var names []string
	var values []cty.Value
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("parameter %q: %w", name, err)
		}
		v, err := decodeValue(raw)
		if err != nil {
			return fmt.Errorf("parameter %q: %w", name, err)
		}
		names = append(names, name)
		values = append(values, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	w.Assignment = sweep.NewAssignment(names, values)
	return nil
}

// decodeValue infers the cty type of a JSON scalar and decodes it.
func decodeValue(raw []byte) (cty.Value, error) {
	ty, err := ctyjson.ImpliedType(raw)
	if err != nil {
		return cty.NilVal, err
	}
	if !ty.IsPrimitiveType() {
		return cty.NilVal, fmt.Errorf("value must be a number, string or bool, got %s", ty.FriendlyName())
	}
	return ctyjson.Unmarshal(raw, ty)
}

// Encode writes m as indented JSON.
func Encode(w io.Writer, m *Manifest) error {
	wire := wireManifest{
		Params:    make([]wireAssignment, len(m.Params)),
		ExecCmd:   m.ExecCmd,
		OutputDir: m.OutputDir,
	}
	for i, a := range m.Params {
		wire.Params[i] = wireAssignment{a}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(wire)
}

// Decode reads a manifest from r.
func Decode(r io.Reader) (*Manifest, error) {
	var wire wireManifest
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	m := &Manifest{
		Params:    make([]sweep.Assignment, len(wire.Params)),
		ExecCmd:   wire.ExecCmd,
		OutputDir: wire.OutputDir,
	}
	for i, a := range wire.Params {
		m.Params[i] = a.Assignment
	}
	return m, nil
}

// Write stores m at path.
func Write(path string, m *Manifest) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest %s: %w", path, err)
	}
	if err := Encode(f, m); err != nil {
		f.Close()
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return f.Close()
}

// Read loads the manifest stored at path.
func Read(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open manifest %s: %w", path, err)
	}
	defer f.Close()
	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Task returns the assignment run by the 1-based scheduler task id.
func (m *Manifest) Task(id int) (sweep.Assignment, error) {
	if id < 1 || id > len(m.Params) {
		return sweep.Assignment{}, fmt.Errorf("%w: %d not in 1..%d", ErrTaskOutOfRange, id, len(m.Params))
	}
	return m.Params[id-1], nil
}

// EncodeParams writes just the parameter list as an indented JSON array.
func EncodeParams(w io.Writer, params []sweep.Assignment) error {
	wire := make([]wireAssignment, len(params))
	for i, a := range params {
		wire[i] = wireAssignment{a}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(wire)
}
