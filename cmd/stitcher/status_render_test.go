package main

import (
	"fmt"
	"image"
	"strings"
	"testing"
	"time"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Run", statusError, "aborted", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Run:", "[ERROR] aborted")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Run", statusOK, "completed", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestTitleLabel(t *testing.T) {
	tests := map[string]string{
		"stitched":      "Stitched",
		"decode_failed": "Decode Failed",
		"":              "-",
	}
	for input, want := range tests {
		if got := titleLabel(input); got != want {
			t.Fatalf("titleLabel(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatSize(image.Pt(20, 10)); got != "20x10" {
		t.Fatalf("formatSize = %q", got)
	}
	if got := formatSize(image.Point{}); got != "-" {
		t.Fatalf("formatSize(zero) = %q", got)
	}
	if got := formatDuration(0); got != "-" {
		t.Fatalf("formatDuration(0) = %q", got)
	}
	if got := formatDuration(1500 * time.Millisecond); got != "1.5s" {
		t.Fatalf("formatDuration(1.5s) = %q", got)
	}
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("shortID = %q", got)
	}
	if got := truncate(strings.Repeat("a", 10), 6); got != "aaa..." {
		t.Fatalf("truncate = %q", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(tableSpec{
		headers: []string{"Group", "Tiles"},
		aligns:  []columnAlignment{alignLeft, alignRight},
		rows:    [][]string{{"shotA"}},
		footer:  []string{"Total", "1"},
	})
	if !strings.Contains(out, "shotA") || !strings.Contains(strings.ToUpper(out), "TILES") || !strings.Contains(strings.ToUpper(out), "TOTAL") {
		t.Fatalf("unexpected table:\n%s", out)
	}
	if renderTable(tableSpec{}) != "" {
		t.Fatal("expected empty render without headers")
	}
}
