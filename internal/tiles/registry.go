package tiles

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"stitcher/internal/logging"
	"stitcher/internal/stitcherr"
)

// Registry maps identifiers to groups and remembers the order they were
// first seen in.
type Registry struct {
	groups map[string]*Group
	order  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]*Group)}
}

// Add appends a tile to the group for identifier, creating the group on first sight.
func (r *Registry) Add(identifier string, tile Tile) {
	group, ok := r.groups[identifier]
	if !ok {
		group = &Group{Identifier: identifier}
		r.groups[identifier] = group
		r.order = append(r.order, identifier)
	}
	group.Tiles = append(group.Tiles, tile)
}

// Len returns the number of groups.
func (r *Registry) Len() int {
	return len(r.groups)
}

// Lookup returns the group for identifier.
func (r *Registry) Lookup(identifier string) (*Group, bool) {
	group, ok := r.groups[identifier]
	return group, ok
}

// Groups returns every group sorted by identifier.
func (r *Registry) Groups() []*Group {
	ids := append([]string(nil), r.order...)
	sort.Strings(ids)
	out := make([]*Group, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.groups[id])
	}
	return out
}

// TileCount returns the number of tiles across all groups.
func (r *Registry) TileCount() int {
	total := 0
	for _, group := range r.groups {
		total += group.Count()
	}
	return total
}

// ScanOptions controls BuildRegistry.
type ScanOptions struct {
	Scheme NamingScheme
	// Ignore holds filepath.Match patterns tested against bare file names.
	Ignore []string
	Logger *slog.Logger
}

// BuildRegistry lists dir non-recursively and groups every regular file by
// identifier. Subdirectories and ignored names are skipped; any other name
// that does not parse aborts the listing with stitcherr.ErrMalformedInput.
func BuildRegistry(dir string, opts ScanOptions) (*Registry, error) {
	logger := logging.NewComponentLogger(opts.Logger, "registry")
	if opts.Scheme == (NamingScheme{}) {
		opts.Scheme = DefaultScheme()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, stitcherr.Wrap(stitcherr.ErrMalformedInput, "scan", "list input", dir, err)
	}

	registry := NewRegistry()
	skipped := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			logger.Debug("skipping subdirectory", logging.String("name", name))
			skipped++
			continue
		}
		if ignored(name, opts.Ignore) {
			logger.Debug("skipping ignored file", logging.String("name", name))
			skipped++
			continue
		}
		parsed, err := opts.Scheme.Parse(name)
		if err != nil {
			return nil, err
		}
		registry.Add(parsed.Identifier, Tile{
			Path:   filepath.Join(dir, name),
			Column: parsed.Column,
			Row:    parsed.Row,
		})
	}

	for _, group := range registry.Groups() {
		for _, cell := range group.DuplicateCells() {
			logging.WarnWithContext(logger, "duplicate tile cell", "duplicate_cell",
				logging.String(logging.FieldGroup, group.Identifier),
				logging.String("cell", fmt.Sprintf("x%d_y%d", cell.X, cell.Y)),
				logging.String(logging.FieldImpact, "the later tile in name order overwrites the earlier one"),
				logging.String(logging.FieldErrorHint, "remove the stale capture from the input directory"),
			)
		}
	}

	logger.Info("input scanned",
		logging.String("input_dir", dir),
		logging.Int("groups", registry.Len()),
		logging.Int("tiles", registry.TileCount()),
		logging.Int("skipped", skipped),
	)
	return registry, nil
}

func ignored(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
