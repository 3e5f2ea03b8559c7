package preflight

import (
	"fmt"
	"strings"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll checks the input directory for reading and the output directory for
// writing. The output directory must already exist.
func RunAll(inputDir, outputDir string) []Result {
	return []Result{
		CheckDirectoryAccess("Input directory", inputDir, ReadAccess),
		CheckDirectoryAccess("Output directory", outputDir, WriteAccess),
	}
}

// Err joins the details of every failed check, or returns nil when all passed.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(failed, "; "))
}
