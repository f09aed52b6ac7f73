package sheet

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func pixel(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestExportCompacting(t *testing.T) {
	src := newTestSheet(4, 2)
	g := NewGrid(256, 128, 64, 64)

	out, err := Export(src, g, []int{7, 0}, Compacting)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 128, 64) {
		t.Fatalf("bounds = %v, want 128x64", out.Bounds())
	}
	// sorted by index: tile 0 then tile 7
	if got := pixel(out, 10, 10); got != tileColor(0) {
		t.Errorf("slot 0 = %v, want tile 0 %v", got, tileColor(0))
	}
	if got := pixel(out, 64+10, 63); got != tileColor(7) {
		t.Errorf("slot 1 = %v, want tile 7 %v", got, tileColor(7))
	}
}

func TestExportCompactingWidth(t *testing.T) {
	src := newTestSheet(4, 2)
	g := NewGrid(256, 128, 64, 64)
	for n := 1; n <= g.Count(); n++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		out, err := Export(src, g, idx, Compacting)
		if err != nil {
			t.Fatal(err)
		}
		if out.Bounds().Dx() != n*64 || out.Bounds().Dy() != 64 {
			t.Errorf("n=%d: bounds %v", n, out.Bounds())
		}
	}
}

func TestExportSubtractive(t *testing.T) {
	src := newTestSheet(4, 2)
	g := NewGrid(256, 128, 64, 64)

	out, err := Export(src, g, []int{1, 6}, Subtractive)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", out.Bounds(), src.Bounds())
	}
	if got := pixel(out, 70, 10); got.A != 0 {
		t.Errorf("removed tile 1 still opaque: %v", got)
	}
	if got := pixel(out, 140, 70); got.A != 0 {
		t.Errorf("removed tile 6 still opaque: %v", got)
	}
	if got := pixel(out, 10, 10); got != tileColor(0) {
		t.Errorf("kept tile 0 changed: %v", got)
	}
	// source is untouched
	if got := pixel(src, 70, 10); got != tileColor(1) {
		t.Errorf("source modified: %v", got)
	}
}

func TestExportEmptySelection(t *testing.T) {
	src := newTestSheet(4, 2)
	g := NewGrid(256, 128, 64, 64)
	for _, indices := range [][]int{nil, {8, 99}, {-1}} {
		for _, p := range []Policy{Subtractive, Compacting} {
			out, err := Export(src, g, indices, p)
			if !errors.Is(err, ErrEmptySelection) || out != nil {
				t.Errorf("%s %v: got %v, %v; want nil, ErrEmptySelection", p, indices, out, err)
			}
		}
	}

	// tiles off the grid are dropped, the rest still export
	out, err := Export(src, g, []int{99, 7}, Compacting)
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds().Dx() != 64 || out.NRGBAAt(0, 0) != tileColor(7) {
		t.Errorf("got %v with %v", out.Bounds(), out.NRGBAAt(0, 0))
	}
}

func TestExportNonZeroOrigin(t *testing.T) {
	full := newTestSheet(4, 2)
	sub := full.SubImage(image.Rect(64, 0, 256, 64)) // tiles 1,2,3
	g := NewGrid(192, 64, 64, 64)

	out, err := Export(sub, g, []int{2}, Compacting)
	if err != nil {
		t.Fatal(err)
	}
	if got := pixel(out, 5, 5); got != tileColor(3) {
		t.Errorf("got %v, want tile 3 %v", got, tileColor(3))
	}
}

func TestDataURIRoundTrip(t *testing.T) {
	e := newLoadedEditor(Compacting)
	if _, err := e.ExportDataURI(); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("empty export err = %v", err)
	}

	e.Click(image.Pt(1, 1))
	e.Click(image.Pt(255, 127))
	uri, err := e.ExportDataURI()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("bad prefix: %.40s", uri)
	}
	img, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 128 || img.Bounds().Dy() != 64 {
		t.Errorf("decoded bounds %v", img.Bounds())
	}
	if got := pixel(img, 70, 5); got != tileColor(7) {
		t.Errorf("decoded slot 1 = %v", got)
	}
}

func TestSaveAndOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.png")
	if err := SavePNG(newTestSheet(2, 1), path); err != nil {
		t.Fatal(err)
	}
	img, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 128 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParsePolicy(t *testing.T) {
	testCases := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", Subtractive, false},
		{"remove", Subtractive, false},
		{"Compact", Compacting, false},
		{"keep", Compacting, false},
		{"shuffle", Subtractive, true},
	}
	for _, tc := range testCases {
		got, err := ParsePolicy(tc.in)
		if got != tc.want || (err != nil) != tc.wantErr {
			t.Errorf("ParsePolicy(%q) = %v, %v", tc.in, got, err)
		}
	}
}

func TestSelection(t *testing.T) {
	s := NewSelection(3, 1)
	if !s.Toggle(2) || s.Toggle(3) {
		t.Fatal("toggle membership wrong")
	}
	if !reflect.DeepEqual(s.Indices(), []int{1, 2}) {
		t.Errorf("indices = %v", s.Indices())
	}
	before := s.Indices()
	s.ToggleAll([]int{0, 1, 5})
	s.ToggleAll([]int{0, 1, 5})
	if !reflect.DeepEqual(s.Indices(), before) {
		t.Errorf("double ToggleAll changed set: %v", s.Indices())
	}
	s.Clear()
	if s.Len() != 0 || s.Has(1) {
		t.Error("clear failed")
	}
}
