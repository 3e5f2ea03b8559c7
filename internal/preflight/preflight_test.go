package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir, WriteAccess)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "read/write ok") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
	if r := CheckDirectoryAccess("test", dir, ReadAccess); !strings.Contains(r.Detail, "read ok") {
		t.Fatalf("unexpected read detail: %s", r.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"), ReadAccess)
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f, ReadAccess)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRunAllAndErr(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	results := RunAll(in, out)
	if len(results) != 2 {
		t.Fatalf("results = %d want 2", len(results))
	}
	if err := Err(results); err != nil {
		t.Fatalf("expected all checks to pass: %v", err)
	}

	results = RunAll(in, filepath.Join(out, "missing"))
	err := Err(results)
	if err == nil {
		t.Fatal("expected error for missing output directory")
	}
	if !strings.Contains(err.Error(), "Output directory") {
		t.Fatalf("error should name the failed check: %v", err)
	}
}
