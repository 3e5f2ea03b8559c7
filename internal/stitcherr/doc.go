// Package stitcherr defines the error taxonomy shared by the registry, the
// compositor, and the run engine.
//
// Callers tag failures with one of the sentinel markers through Wrap so the
// engine can decide with errors.Is whether a failure aborts the whole run
// (malformed listings, configuration problems) or only the group being
// stitched (decode and encode failures). Kind turns a tagged error into the
// short label written to logs and the run history.
package stitcherr
