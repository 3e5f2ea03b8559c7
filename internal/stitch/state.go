package stitch

import "sync/atomic"

// RunState is the shared active flag for one run. It starts active and,
// once cancelled, never becomes active again.
type RunState struct {
	active atomic.Bool
}

// NewRunState returns an active state.
func NewRunState() *RunState {
	s := &RunState{}
	s.active.Store(true)
	return s
}

// Active reports whether workers should keep going.
func (s *RunState) Active() bool {
	return s.active.Load()
}

// Cancel stops the run at the next tile boundary. It is safe to call more
// than once and from any goroutine.
func (s *RunState) Cancel() {
	s.active.Store(false)
}
