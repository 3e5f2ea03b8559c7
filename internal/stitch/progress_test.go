package stitch

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"stitcher/internal/logging"
)

func TestLogSinkSamplesOverallProgress(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	sink := NewLogSink(logger)

	for i := 0; i <= 100; i++ {
		sink.ReportOverall(i, 100)
	}
	sink.ReportWorker(0, 1, 4)

	lines := strings.Count(buf.String(), "stitch progress")
	if lines != 11 {
		t.Fatalf("expected 11 sampled lines, got %d:\n%s", lines, buf.String())
	}
	if strings.Contains(buf.String(), "tile progress") {
		t.Fatal("per-tile progress should only appear at debug level")
	}
}

func TestLogSinkConcurrentUse(t *testing.T) {
	sink := NewLogSink(logging.NewNop())
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				sink.ReportWorker(id, i, 50)
				sink.ReportOverall(i, 50)
			}
		}(w)
	}
	wg.Wait()
}

func TestMultiSinkFansOut(t *testing.T) {
	var a, b counterSink
	sink := MultiSink{&a, &b, NopSink{}}
	sink.ReportOverall(1, 2)
	sink.ReportWorker(0, 1, 2)
	if a.overall != 1 || b.overall != 1 || a.worker != 1 || b.worker != 1 {
		t.Fatalf("a=%+v b=%+v", a, b)
	}
}

type counterSink struct{ overall, worker int }

func (c *counterSink) ReportOverall(int, int) { c.overall++ }

func (c *counterSink) ReportWorker(int, int, int) { c.worker++ }

func TestRunStateCancelIsSticky(t *testing.T) {
	s := NewRunState()
	if !s.Active() {
		t.Fatal("new state should be active")
	}
	s.Cancel()
	s.Cancel()
	if s.Active() {
		t.Fatal("state should stay inactive")
	}
}

func TestResultCounters(t *testing.T) {
	r := Result{Groups: []GroupOutcome{
		{Status: GroupStitched}, {Status: GroupFailed}, {Status: GroupSkipped},
	}}
	if r.Total() != 3 || r.Count(GroupStitched) != 1 || !r.Failed() {
		t.Fatalf("unexpected counters for %+v", r)
	}
	if r.Duration() != 0 {
		t.Fatal("unfinished result should report zero duration")
	}
	for status, want := range map[Status]string{
		StatusCompleted: "completed", StatusCancelled: "cancelled", StatusAborted: "aborted", Status(9): "unknown",
	} {
		if status.String() != want {
			t.Fatalf("%d.String() = %q", status, status.String())
		}
	}
}
