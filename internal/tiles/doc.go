// Package tiles turns a flat directory listing into stitchable groups.
//
// File names follow <identifier>_x<column>_y<row>.<ext>. BuildRegistry parses
// every name once, single-threaded, and fails the whole listing on the first
// name that does not conform so a composite is never silently missing a tile.
// The resulting groups are handed out through a JobQueue, whose TakeNext is
// safe for any number of concurrent workers.
package tiles
