package batch

import (
	"embed"
	"fmt"
	"io"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Scheduler selects the flavour of array-job script to render.
type Scheduler int

const (
	// SGE renders a Grid Engine array job driven by $SGE_TASK_ID.
	SGE Scheduler = iota
	// SLURM renders a Slurm array job driven by $SLURM_ARRAY_TASK_ID.
	SLURM
)

// ParseScheduler maps a scheduler name ("sge", "slurm") to a Scheduler.
func ParseScheduler(name string) (Scheduler, error) {
	switch strings.ToLower(name) {
	case "sge":
		return SGE, nil
	case "slurm":
		return SLURM, nil
	}
	return 0, fmt.Errorf("unsupported scheduler %q: must be 'sge' or 'slurm'", name)
}

func (s Scheduler) String() string {
	switch s {
	case SGE:
		return "sge"
	case SLURM:
		return "slurm"
	}
	return fmt.Sprintf("Scheduler(%d)", int(s))
}

// ScriptName returns the file name of the rendered script.
func (s Scheduler) ScriptName() string {
	return fmt.Sprintf("batch.%s.sh", s)
}

func (s Scheduler) templateName() (string, error) {
	switch s {
	case SGE, SLURM:
		return s.ScriptName() + ".tmpl", nil
	}
	return "", fmt.Errorf("unsupported scheduler %s", s)
}

// ScriptContext is the data available to the script templates.
type ScriptContext struct {
	SweepName    string
	JobName      string
	NumTasks     int
	RunnerPath   string
	ManifestPath string
	OutputDir    string
	// BatchParams are extra scheduler directives, written verbatim after the
	// directive prefix.
	BatchParams []string
}

var templates = template.Must(
	template.New("batch").
		Funcs(template.FuncMap{"shellquote": shellQuote}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

// RenderScript writes the submission script for s.
func RenderScript(w io.Writer, s Scheduler, data ScriptContext) error {
	name, err := s.templateName()
	if err != nil {
		return err
	}
	if data.NumTasks < 1 {
		return fmt.Errorf("cannot render a %s array job with %d tasks", s, data.NumTasks)
	}
	return templates.ExecuteTemplate(w, name, data)
}

// shellQuote quotes s for POSIX shells.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r == '/' || r == '.' || r == '-' || r == '_' || r == '+' || r == ':' || r == ',' || r == '=' ||
			('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9'))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
