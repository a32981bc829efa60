package hcl

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/gridsweep/internal/ctxlog"
	"github.com/vk/gridsweep/internal/fsutil"
	"github.com/vk/gridsweep/internal/sweep"
)

// ErrNoSweep is returned when no `sweep` block exists under the loaded path.
var ErrNoSweep = errors.New("no sweep block found")

// Definition is a loaded sweep.
type Definition struct {
	Name        string
	Description string
	// File is the file the sweep block was declared in.
	File string
	Scan *sweep.Scan
}

// ParamNames returns the parameter names in declaration order.
func (d *Definition) ParamNames() []string {
	return d.Scan.Parameters().Names()
}

// Loader reads sweep definitions from HCL files.
type Loader struct{}

// NewLoader creates a new HCL sweep loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the single sweep declared under path, which may be one .hcl file
// or a directory searched recursively for .hcl files.
func (l *Loader) Load(ctx context.Context, path string) (*Definition, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading sweep from path.", "path", path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("failed to find sweep files in %s: %w", path, err)
		}
	}
	logger.Debug("Discovered sweep files.", "count", len(files))

	parser := hclparse.NewParser()
	var found []*Definition
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		defs, err := l.decode(ctx, hclFile, file)
		if err != nil {
			return nil, err
		}
		found = append(found, defs...)
	}
	return single(found, path)
}

// Parse reads the single sweep declared in src. filename is only used in
// diagnostics.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte) (*Definition, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	defs, err := l.decode(ctx, hclFile, filename)
	if err != nil {
		return nil, err
	}
	return single(defs, filename)
}

func (l *Loader) decode(ctx context.Context, file *hcl.File, filename string) ([]*Definition, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	defs := make([]*Definition, 0, len(root.Sweeps))
	for _, b := range root.Sweeps {
		def, diags := translateSweep(ctx, b, filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid sweep %q in %s: %w", b.Name, filename, diags)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func single(defs []*Definition, path string) (*Definition, error) {
	switch len(defs) {
	case 0:
		return nil, fmt.Errorf("%w in %s", ErrNoSweep, path)
	case 1:
		return defs[0], nil
	default:
		return nil, fmt.Errorf("expected one sweep block in %s, found %d (%q in %s and %q in %s)",
			path, len(defs), defs[0].Name, defs[0].File, defs[1].Name, defs[1].File)
	}
}
