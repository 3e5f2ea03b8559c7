package testsupport

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// WriteTile encodes a w×h PNG filled with fill at dir/name and returns its path.
func WriteTile(t testing.TB, dir, name string, w, h int, fill color.Color) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, fill)
		}
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

// WriteGrid writes a cols×rows group of size×size tiles named with the
// default scheme. Each cell gets a distinct grey level.
func WriteGrid(t testing.TB, dir, id string, cols, rows, size int) {
	t.Helper()

	for c := range cols {
		for r := range rows {
			name := fmt.Sprintf("%s_x%d_y%d.png", id, c, r)
			WriteTile(t, dir, name, size, size, color.Gray{Y: uint8(40 * (c + r + 1))})
		}
	}
}

// WriteCorrupt fills path with size bytes of a repeating pattern that no image
// decoder accepts. A size <= 0 writes a single byte.
func WriteCorrupt(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
