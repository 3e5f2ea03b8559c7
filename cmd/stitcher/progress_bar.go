package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progressBarSink renders run progress as a single terminal bar. The bar
// counts groups; per-worker tile progress is shown in its description.
type progressBarSink struct {
	mu        sync.Mutex
	bar       *progressbar.ProgressBar
	total     int
	completed int
	workers   map[int]string
}

func newProgressBarSink(w io.Writer) *progressBarSink {
	bar := progressbar.NewOptions(1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("stitching"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &progressBarSink{bar: bar, workers: make(map[int]string)}
}

func (s *progressBarSink) ReportOverall(completed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if total != s.total && total > 0 {
		s.bar.ChangeMax(total)
	}
	s.total = total
	s.completed = completed
	_ = s.bar.Set(completed)
}

func (s *progressBarSink) ReportWorker(workerID, tileIndex, tileTotal int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tileIndex >= tileTotal {
		delete(s.workers, workerID)
	} else {
		s.workers[workerID] = fmt.Sprintf("%d/%d", tileIndex+1, tileTotal)
	}
	s.bar.Describe(s.describe())
}

// describe lists busy workers in id order, e.g. "stitching w1 3/6 w2 1/4".
func (s *progressBarSink) describe() string {
	ids := make([]int, 0, len(s.workers))
	for id := range s.workers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	var b strings.Builder
	b.WriteString("stitching")
	for _, id := range ids {
		fmt.Fprintf(&b, " w%d %s", id, s.workers[id])
	}
	return b.String()
}

// Close stops the bar without forcing it to 100% so a cancelled run shows
// where it stopped.
func (s *progressBarSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.bar.Exit()
}
