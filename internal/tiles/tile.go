package tiles

import "image"

// Tile is one captured fragment at a grid position. Its identity is Path.
type Tile struct {
	Path   string
	Column int
	Row    int
}

// Cell returns the tile's (column, row) as a point.
func (t Tile) Cell() image.Point {
	return image.Pt(t.Column, t.Row)
}

// Group is the set of tiles sharing one identifier, in discovery order.
// Groups are built by BuildRegistry and are read-only afterwards.
type Group struct {
	Identifier string
	Tiles      []Tile
}

// Width is the number of grid columns, max(column)+1.
func (g *Group) Width() int {
	width := 0
	for _, t := range g.Tiles {
		if t.Column+1 > width {
			width = t.Column + 1
		}
	}
	return width
}

// Height is the number of grid rows, max(row)+1.
func (g *Group) Height() int {
	height := 0
	for _, t := range g.Tiles {
		if t.Row+1 > height {
			height = t.Row + 1
		}
	}
	return height
}

// Count is the number of tiles in the group.
func (g *Group) Count() int {
	return len(g.Tiles)
}

// DuplicateCells lists cells claimed by more than one tile, in first-seen
// order. Later tiles overwrite earlier ones when composited.
func (g *Group) DuplicateCells() []image.Point {
	seen := make(map[image.Point]int, len(g.Tiles))
	var dups []image.Point
	for _, t := range g.Tiles {
		cell := t.Cell()
		seen[cell]++
		if seen[cell] == 2 {
			dups = append(dups, cell)
		}
	}
	return dups
}

// MissingCells counts grid cells no tile covers. They stay background in the
// composite.
func (g *Group) MissingCells() int {
	covered := make(map[image.Point]struct{}, len(g.Tiles))
	for _, t := range g.Tiles {
		covered[t.Cell()] = struct{}{}
	}
	return g.Width()*g.Height() - len(covered)
}
