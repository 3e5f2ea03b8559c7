// Package compositor assembles a group's tiles into one opaque canvas and
// encodes it as JPEG.
//
// The first tile fixes the cell size. Every tile is decoded right before it is
// drawn at (cellW*column, cellH*row) and released afterwards, so memory holds
// the canvas plus one tile at a time.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"path/filepath"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"stitcher/internal/fileutil"
	"stitcher/internal/stitcherr"
	"stitcher/internal/tiles"
)

// OutputExtension is the extension of every composite written to disk.
const OutputExtension = ".jpg"

// ErrCancelled is returned when Hooks.Active reports false between tiles.
var ErrCancelled = errors.New("composite cancelled")

// Options tunes the compositor.
type Options struct {
	JPEGQuality      int
	StrictDimensions bool
	// MaxCanvasPixels rejects groups whose canvas would exceed this area.
	// Zero disables the check.
	MaxCanvasPixels int64
}

// Hooks connect a composite to its worker. Both fields are optional.
type Hooks struct {
	// Active is polled before each tile.
	Active func() bool
	// BeforeTile receives the zero-based tile index and the group's tile count.
	BeforeTile func(index, total int)
}

// Layout is the geometry of a composite.
type Layout struct {
	Cell   image.Point
	Canvas image.Point
}

// Compositor builds and writes composites. It holds no per-group state and is
// safe for concurrent use.
type Compositor struct {
	opts   Options
	decode func(path string) (image.Image, error)
}

// New returns a compositor that decodes tiles with imaging.Open.
func New(opts Options) *Compositor {
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 90
	}
	return &Compositor{opts: opts, decode: func(path string) (image.Image, error) {
		return imaging.Open(path)
	}}
}

// OutputPath is where the composite for identifier is written.
func OutputPath(outputDir, identifier string) string {
	return filepath.Join(outputDir, identifier+OutputExtension)
}

// Compose draws every tile of group onto a new canvas. It returns ErrCancelled
// if hooks.Active turns false, and errors wrapping stitcherr markers for
// decode, dimension and size failures.
func (c *Compositor) Compose(group *tiles.Group, hooks Hooks) (*image.NRGBA, Layout, error) {
	total := group.Count()
	if total == 0 {
		return nil, Layout{}, stitcherr.Wrap(stitcherr.ErrMalformedInput, "compose", group.Identifier, "group has no tiles", nil)
	}

	var (
		canvas *image.NRGBA
		layout Layout
	)
	for i, tile := range group.Tiles {
		if hooks.Active != nil && !hooks.Active() {
			return nil, Layout{}, ErrCancelled
		}
		if hooks.BeforeTile != nil {
			hooks.BeforeTile(i, total)
		}

		src, err := c.decode(tile.Path)
		if err != nil {
			return nil, Layout{}, stitcherr.Wrap(stitcherr.ErrDecodeFailure, "compose", "decode tile", filepath.Base(tile.Path), err)
		}
		size := src.Bounds().Size()

		if canvas == nil {
			if size.X <= 0 || size.Y <= 0 {
				return nil, Layout{}, stitcherr.Wrap(stitcherr.ErrDecodeFailure, "compose", "decode tile", fmt.Sprintf("%s has empty bounds", filepath.Base(tile.Path)), nil)
			}
			layout, err = c.layout(group, size)
			if err != nil {
				return nil, Layout{}, err
			}
			canvas = imaging.New(layout.Canvas.X, layout.Canvas.Y, color.Black)
		} else if c.opts.StrictDimensions && size != layout.Cell {
			return nil, Layout{}, stitcherr.Wrap(stitcherr.ErrDimensionMismatch, "compose", group.Identifier,
				fmt.Sprintf("%s is %dx%d, cell is %dx%d", filepath.Base(tile.Path), size.X, size.Y, layout.Cell.X, layout.Cell.Y), nil)
		}

		origin := image.Pt(layout.Cell.X*tile.Column, layout.Cell.Y*tile.Row)
		xdraw.Copy(canvas, origin, src, src.Bounds(), xdraw.Over, nil)
	}
	return canvas, layout, nil
}

func (c *Compositor) layout(group *tiles.Group, cell image.Point) (Layout, error) {
	width := int64(cell.X) * int64(group.Width())
	height := int64(cell.Y) * int64(group.Height())
	const maxDimension = 1<<31 - 1
	if width > maxDimension || height > maxDimension ||
		(c.opts.MaxCanvasPixels > 0 && width*height > c.opts.MaxCanvasPixels) {
		return Layout{}, stitcherr.Wrap(stitcherr.ErrCanvasTooLarge, "compose", group.Identifier,
			fmt.Sprintf("canvas %dx%d exceeds limit of %d pixels", width, height, c.opts.MaxCanvasPixels), nil)
	}
	return Layout{Cell: cell, Canvas: image.Pt(int(width), int(height))}, nil
}

// Encode writes img as JPEG.
func (c *Compositor) Encode(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(c.opts.JPEGQuality)); err != nil {
		return stitcherr.Wrap(stitcherr.ErrEncodeFailure, "encode", "jpeg", "", err)
	}
	return nil
}

// Write encodes img to path, replacing any existing file atomically.
func (c *Compositor) Write(path string, img image.Image) error {
	err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return c.Encode(w, img)
	})
	if err != nil && !errors.Is(err, stitcherr.ErrEncodeFailure) {
		return stitcherr.Wrap(stitcherr.ErrEncodeFailure, "encode", "write output", path, err)
	}
	return err
}
