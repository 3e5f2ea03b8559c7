package tiles_test

import (
	"errors"
	"testing"

	"stitcher/internal/stitcherr"
	"stitcher/internal/tiles"
)

func TestParseValidNames(t *testing.T) {
	scheme := tiles.DefaultScheme()
	tests := []struct {
		name       string
		identifier string
		column     int
		row        int
		ext        string
	}{
		{"shotA_x0_y0.png", "shotA", 0, 0, "png"},
		{"shotA_x1_y0.png", "shotA", 1, 0, "png"},
		{"2024-05-01-1200_x12_y3.JPG", "2024-05-01-1200", 12, 3, "jpg"},
		{"s_x007_y10.bmp", "s", 7, 10, "bmp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scheme.Parse(tt.name)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.name, err)
			}
			if got.Identifier != tt.identifier || got.Column != tt.column || got.Row != tt.row || got.Extension != tt.ext {
				t.Fatalf("Parse(%q) = %+v", tt.name, got)
			}
		})
	}
}

func TestParseRejectsMalformedNames(t *testing.T) {
	scheme := tiles.DefaultScheme()
	names := []string{
		"",
		"shotB-bad.png",
		"shotB_x0.png",
		"shot_B_x0_y0.png",
		"_x0_y0.png",
		"shot_0_y0.png",
		"shot_x_y0.png",
		"shot_x0_y.png",
		"shot_x-1_y0.png",
		"shot_x1a_y0.png",
		"shot_y0_x0.png",
		"shot_x0_y0",
		"shot_x0_y0.",
		"shot_x0_y99999999999.png",
		"shot_x0_y1.5.png",
		"shot_x0_y1.tar.png",
		"map_x0_y0.tar.gz",
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			_, err := scheme.Parse(name)
			if err == nil {
				t.Fatalf("Parse(%q) expected error", name)
			}
			if !errors.Is(err, stitcherr.ErrMalformedInput) {
				t.Fatalf("Parse(%q) error %v is not ErrMalformedInput", name, err)
			}
		})
	}
}

func TestParseCustomScheme(t *testing.T) {
	scheme := tiles.NamingScheme{Delimiter: "-", ColumnPrefix: "c", RowPrefix: "r"}
	got, err := scheme.Parse("page-c2-r5.png")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got.Identifier != "page" || got.Column != 2 || got.Row != 5 {
		t.Fatalf("unexpected parse result: %+v", got)
	}
	if _, err := scheme.Parse("page_x2_y5.png"); err == nil {
		t.Fatal("expected default-style name to fail under custom scheme")
	}
}
