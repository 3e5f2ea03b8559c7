// Package main hosts the stitcher CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, builds the structured logger,
// and hands tile directories to the stitch engine. Results come back as a
// summary table, an optional history record, and a process exit code:
// 0 for a clean run, 1 for an aborted run or one with failed groups, and 130
// when the run was cancelled by a signal.
//
// Keep this package thin. Behaviour belongs in the internal packages; commands
// only translate flags into engine options and render what comes back.
package main
