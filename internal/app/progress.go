package app

import (
	"context"
	"sync"
	"time"

	"github.com/vk/gridsweep/internal/notify"
	"github.com/vk/gridsweep/internal/sweep"
)

// progressSnapshot is served on /progress by the health check server.
type progressSnapshot struct {
	RunID    string    `json:"run_id"`
	Total    int       `json:"total"`
	Started  int       `json:"started"`
	Finished int       `json:"finished"`
	Failed   int       `json:"failed"`
	Current  string    `json:"current,omitempty"`
	Updated  time.Time `json:"updated"`
}

// progress counts task events and forwards them to the next reporter.
type progress struct {
	mu   sync.Mutex
	snap progressSnapshot
	next notify.Reporter
}

func newProgress(runID string) *progress {
	return &progress{next: notify.Nop{}, snap: progressSnapshot{RunID: runID, Updated: time.Now()}}
}

func (p *progress) setTotal(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.Total = n
}

// chain makes p forward events to next.
func (p *progress) chain(next notify.Reporter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next = next
}

func (p *progress) TaskStarted(ctx context.Context, id int, a sweep.Assignment) {
	p.mu.Lock()
	p.snap.Started++
	p.snap.Current = a.String()
	p.snap.Updated = time.Now()
	next := p.next
	p.mu.Unlock()

	next.TaskStarted(ctx, id, a)
}

func (p *progress) TaskFinished(ctx context.Context, id int, exitCode int, err error) {
	p.mu.Lock()
	p.snap.Finished++
	if err != nil {
		p.snap.Failed++
	}
	p.snap.Current = ""
	p.snap.Updated = time.Now()
	next := p.next
	p.mu.Unlock()

	next.TaskFinished(ctx, id, exitCode, err)
}

func (p *progress) Close() error {
	p.mu.Lock()
	next := p.next
	p.next = notify.Nop{}
	p.mu.Unlock()
	return next.Close()
}

func (p *progress) snapshot() progressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}
