// Package stitch runs the worker pool that turns an input directory of tiles
// into one composite per group.
//
// Engine.Run scans the directory, queues every group, and starts a fixed
// number of workers. Each worker takes groups until the queue is empty or the
// run is cancelled, reporting per-tile progress to a ProgressSink. A group
// that fails to decode or encode is recorded in the Result and the run moves
// on; a malformed file name aborts the run before any worker starts.
package stitch
