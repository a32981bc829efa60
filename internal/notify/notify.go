// Package notify reports sweep progress to an observer while tasks run.
package notify

import (
	"context"

	"github.com/vk/gridsweep/internal/sweep"
)

// Event names emitted by reporters.
const (
	EventTaskStarted  = "task_started"
	EventTaskFinished = "task_finished"
)

// Reporter receives task lifecycle events from the serial driver and the task
// runner. Implementations must not block for long; reporting is best effort.
type Reporter interface {
	TaskStarted(ctx context.Context, id int, a sweep.Assignment)
	TaskFinished(ctx context.Context, id int, exitCode int, err error)
	Close() error
}

// Nop is a Reporter that discards every event.
type Nop struct{}

func (Nop) TaskStarted(context.Context, int, sweep.Assignment) {}

func (Nop) TaskFinished(context.Context, int, int, error) {}

func (Nop) Close() error { return nil }

// StartedPayload is the body of a task_started event.
type StartedPayload struct {
	RunID  string            `json:"run_id"`
	Task   int               `json:"task"`
	Params map[string]string `json:"params"`
}

// FinishedPayload is the body of a task_finished event.
type FinishedPayload struct {
	RunID    string `json:"run_id"`
	Task     int    `json:"task"`
	ExitCode int    `json:"exit_code"`
	Error    string `json:"error,omitempty"`
}

func startedPayload(runID string, id int, a sweep.Assignment) StartedPayload {
	p := StartedPayload{RunID: runID, Task: id, Params: make(map[string]string, a.Len())}
	for name, v := range a.All() {
		p.Params[name] = sweep.FormatValue(v)
	}
	return p
}

func finishedPayload(runID string, id, exitCode int, err error) FinishedPayload {
	p := FinishedPayload{RunID: runID, Task: id, ExitCode: exitCode}
	if err != nil {
		p.Error = err.Error()
	}
	return p
}
