package stitch

import (
	"log/slog"
	"sync"

	"stitcher/internal/logging"
)

// ProgressSink receives progress from concurrently running workers. Both
// methods may be called from several goroutines at once.
type ProgressSink interface {
	// ReportOverall is called with (0, total) at start and after every group
	// that is written.
	ReportOverall(completed, total int)
	// ReportWorker is called before each tile with its zero-based index, and
	// with (total, total) once the worker's group is written.
	ReportWorker(workerID, tileIndex, tileTotal int)
}

// NopSink discards progress.
type NopSink struct{}

func (NopSink) ReportOverall(int, int) {}

func (NopSink) ReportWorker(int, int, int) {}

// LogSink turns progress into sampled log lines for non-interactive output.
type LogSink struct {
	mu      sync.Mutex
	logger  *slog.Logger
	sampler *logging.ProgressSampler
}

// NewLogSink logs overall progress at every 10% step. Per-tile progress is
// logged at debug level.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{
		logger:  logging.NewComponentLogger(logger, "progress"),
		sampler: logging.NewProgressSampler(10),
	}
}

func (s *LogSink) ReportOverall(completed, total int) {
	s.mu.Lock()
	emit := s.sampler.ShouldLog(completed, total)
	s.mu.Unlock()
	if !emit {
		return
	}
	s.logger.Info("stitch progress",
		logging.Int("completed", completed),
		logging.Int("total", total),
	)
}

func (s *LogSink) ReportWorker(workerID, tileIndex, tileTotal int) {
	s.logger.Debug("tile progress",
		logging.Int(logging.FieldWorker, workerID),
		logging.Int("tile", tileIndex),
		logging.Int("tiles", tileTotal),
	)
}

// MultiSink fans progress out to several sinks.
type MultiSink []ProgressSink

func (m MultiSink) ReportOverall(completed, total int) {
	for _, sink := range m {
		sink.ReportOverall(completed, total)
	}
}

func (m MultiSink) ReportWorker(workerID, tileIndex, tileTotal int) {
	for _, sink := range m {
		sink.ReportWorker(workerID, tileIndex, tileTotal)
	}
}
