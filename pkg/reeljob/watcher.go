package reeljob

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// PollInterval is how often a watcher re-fetches the job list while any job
// is still non-terminal.
const PollInterval = 2 * time.Second

// Job is the watcher's view of a reel job, detached from the database row.
type Job struct {
	ID         string    `json:"id"`
	MatchID    string    `json:"match_id"`
	Status     Status    `json:"status"`
	ClipBefore float64   `json:"clip_before"`
	ClipAfter  float64   `json:"clip_after"`
	OutputURL  string    `json:"output_url,omitempty"`
	Error      string    `json:"error,omitempty"`
	IsPublic   bool      `json:"is_public"`
	Title      string    `json:"title,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Lister fetches the current job list for the match under watch.
type Lister interface {
	ListJobs(ctx context.Context) ([]Job, error)
}

// ListerFunc adapts a function to the Lister interface.
type ListerFunc func(ctx context.Context) ([]Job, error)

func (f ListerFunc) ListJobs(ctx context.Context) ([]Job, error) {
	return f(ctx)
}

// AnyActive reports whether any job in the list is still non-terminal.
func AnyActive(jobs []Job) bool {
	for _, j := range jobs {
		if !j.Status.Terminal() {
			return true
		}
	}
	return false
}

// Watcher re-fetches a match's reel jobs on a fixed interval while any job
// is non-terminal, delivering each snapshot to a callback. It is the only
// way the worker's progress is observed. The watch is bound to its context:
// cancel the context and the loop stops, so a watcher tied to a request or
// view lifetime cannot outlive it.
type Watcher struct {
	lister   Lister
	interval time.Duration
	onUpdate func([]Job)
}

func NewWatcher(lister Lister, onUpdate func([]Job)) *Watcher {
	return &Watcher{
		lister:   lister,
		interval: PollInterval,
		onUpdate: onUpdate,
	}
}

// WithInterval overrides the poll interval. Used by tests.
func (w *Watcher) WithInterval(d time.Duration) *Watcher {
	w.interval = d
	return w
}

// Run fetches immediately, then polls until every job is terminal or the
// context is cancelled. Fetch errors are logged and retried on the next
// tick; the loop never invents a state transition on its own.
func (w *Watcher) Run(ctx context.Context) error {
	jobs, err := w.lister.ListJobs(ctx)
	if err != nil {
		log.Errorf("Reel job watcher: initial fetch failed: %v", err)
	} else {
		w.onUpdate(jobs)
		if !AnyActive(jobs) {
			return nil
		}
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("Reel job watcher stopping: context cancelled.")
			return ctx.Err()
		case <-ticker.C:
			jobs, err := w.lister.ListJobs(ctx)
			if err != nil {
				log.Errorf("Reel job watcher: fetch failed: %v", err)
				continue
			}
			w.onUpdate(jobs)
			if !AnyActive(jobs) {
				log.Debug("Reel job watcher stopping: all jobs terminal.")
				return nil
			}
		}
	}
}
