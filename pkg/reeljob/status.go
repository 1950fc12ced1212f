package reeljob

import "fmt"

// Status is a reel job's lifecycle state. Jobs are created queued; the
// external render worker moves them through processing to a terminal state
// via the callback endpoint. Nothing in this service computes a transition
// on its own.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// DefaultClipPadding is the per-side clip padding a reel job gets when the
// request does not override it.
const DefaultClipPadding = 6.0

// Terminal reports whether no further status changes can happen. Terminal
// jobs no longer drive polling.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusComplete, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether the worker may move a job from s to next.
// Terminal states accept nothing; queued may fail directly when the worker
// rejects a job without picking it up.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusQueued:
		return next == StatusProcessing || next == StatusComplete || next == StatusFailed
	case StatusProcessing:
		return next == StatusComplete || next == StatusFailed
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown reel job status %q", s)
	}
	return status, nil
}
