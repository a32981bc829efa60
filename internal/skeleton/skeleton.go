// Package skeleton renders a starting-point C++ simulation program that
// accepts the parameters of a sweep on its command line.
package skeleton

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"text/template"

	"github.com/vk/gridsweep/internal/ctxlog"
	"github.com/vk/gridsweep/internal/runner"
)

//go:embed templates/main.cpp.tmpl
var templateFS embed.FS

var mainTemplate = template.Must(template.ParseFS(templateFS, "templates/main.cpp.tmpl"))

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrNoParams is returned when Render is called without parameter names.
var ErrNoParams = errors.New("at least one parameter name is required")

// Render writes the program for the given parameter names. Names must be
// valid C++ identifiers and must not collide with output_dir.
func Render(w io.Writer, names []string) error {
	if len(names) == 0 {
		return ErrNoParams
	}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if !identifier.MatchString(name) {
			return fmt.Errorf("parameter name %q is not a valid C++ identifier", name)
		}
		if name == runner.OutputDirArg {
			return fmt.Errorf("parameter name %q is reserved", name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("parameter name %q is listed twice", name)
		}
		seen[name] = struct{}{}
	}
	return mainTemplate.Execute(w, struct{ Names []string }{names})
}

// Write renders the program to path.
func Write(ctx context.Context, path string, names []string) error {
	var buf bytes.Buffer
	if err := Render(&buf, names); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logger := ctxlog.FromContext(ctx)
	logger.Info("Skeleton program written.", "path", path, "params", len(names))
	logger.Debug("Skeleton program source.", "path", path, "source", buf.String())
	return nil
}
