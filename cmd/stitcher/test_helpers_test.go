package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	inputDir   string
	outputDir  string
	historyDB  string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	inputDir := filepath.Join(base, "tiles")
	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		t.Fatalf("mkdir input: %v", err)
	}

	env := &cliTestEnv{
		baseDir:    base,
		inputDir:   inputDir,
		outputDir:  filepath.Join(base, "out"),
		historyDB:  filepath.Join(base, "state", "history.db"),
		configPath: filepath.Join(base, "stitcher.toml"),
	}
	writeTestConfig(t, env.configPath, env.outputDir, env.historyDB, true)
	return env
}

func writeTestConfig(t *testing.T, path, outputDir, historyDB string, historyEnabled bool) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\noutput_dir = %q\nhistory_db = %q\n\n[stitch]\nworkers = 2\n\n[history]\nenabled = %t\n\n[logging]\nlevel = \"warn\"\n",
		outputDir,
		historyDB,
		historyEnabled,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n%s", needle, haystack)
	}
}
