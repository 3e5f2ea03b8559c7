package stitch

import (
	"image"
	"time"
)

// Status is the overall outcome of a run.
type Status int

const (
	// StatusCompleted means every worker drained the queue. Individual groups
	// may still have failed; see Result.Failed.
	StatusCompleted Status = iota
	// StatusCancelled means the run was stopped before the queue drained.
	StatusCancelled
	// StatusAborted means the run never started its workers.
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// GroupStatus is the outcome of one group.
type GroupStatus string

const (
	GroupStitched  GroupStatus = "stitched"
	GroupFailed    GroupStatus = "failed"
	GroupCancelled GroupStatus = "cancelled"
	// GroupSkipped groups were never taken because the run stopped first.
	GroupSkipped GroupStatus = "skipped"
)

// GroupOutcome records what happened to one group.
type GroupOutcome struct {
	Identifier string
	Status     GroupStatus
	Worker     int
	Tiles      int
	Grid       image.Point
	Canvas     image.Point
	Output     string
	Duration   time.Duration
	Err        error
}

// Result summarizes a run.
type Result struct {
	RunID     string
	Status    Status
	Reason    string
	Err       error
	InputDir  string
	OutputDir string
	Workers   int
	Started   time.Time
	Finished  time.Time
	// Groups is sorted by identifier and holds one entry per scanned group.
	Groups   []GroupOutcome
	Warnings []string
}

// Total is the number of groups found in the input.
func (r Result) Total() int {
	return len(r.Groups)
}

// Count returns how many groups ended with status.
func (r Result) Count(status GroupStatus) int {
	n := 0
	for _, g := range r.Groups {
		if g.Status == status {
			n++
		}
	}
	return n
}

// Failed reports whether any group failed. A completed run with failures is
// distinct from a clean one.
func (r Result) Failed() bool {
	return r.Count(GroupFailed) > 0
}

// Duration is the wall time of the run.
func (r Result) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}
