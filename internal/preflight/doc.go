// Package preflight verifies filesystem access before a run starts.
//
// The engine calls RunAll once the output directory exists, so a read-only
// destination or an unreadable input fails fast instead of after every group
// has been decoded. The "config validate" command reuses CheckDirectoryAccess
// for the history database directory.
package preflight
