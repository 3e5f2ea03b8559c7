package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerNilHandlers(t *testing.T) {
	h := newFanoutHandler(nil, nil)
	if _, ok := h.(NoopHandler); !ok {
		t.Errorf("expected NoopHandler for all nil handlers, got %T", h)
	}
}

func TestNewFanoutHandlerFiltersNil(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)

	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Error("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerHandleRespectsLevel(t *testing.T) {
	var console, file bytes.Buffer
	h := newFanoutHandler(
		slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected fanout enabled when any handler accepts debug")
	}

	logger := slog.New(h)
	logger.Debug("tile decoded")
	logger.Warn("duplicate cell")

	if strings.Contains(console.String(), "tile decoded") {
		t.Errorf("warn-level handler received debug record: %s", console.String())
	}
	if !strings.Contains(console.String(), "duplicate cell") {
		t.Errorf("warn-level handler missed warning: %s", console.String())
	}
	if !strings.Contains(file.String(), "tile decoded") || !strings.Contains(file.String(), "duplicate cell") {
		t.Errorf("debug-level handler missed records: %s", file.String())
	}
}

func TestFanoutHandlerWithAttrsReachesAllHandlers(t *testing.T) {
	var first, second bytes.Buffer
	h := newFanoutHandler(
		slog.NewJSONHandler(&first, nil),
		slog.NewJSONHandler(&second, nil),
	)
	slog.New(h).With(FieldGroup, "shotA").Info("stitched")

	for name, buf := range map[string]*bytes.Buffer{"first": &first, "second": &second} {
		if !strings.Contains(buf.String(), `"group":"shotA"`) {
			t.Errorf("%s handler missing attr: %s", name, buf.String())
		}
	}
}
