package sheet

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
)

var (
	ErrEmptySelection = errors.New("nothing selected")
	ErrNoImage        = errors.New("no image loaded")
)

const dataURIPrefix = "data:image/png;base64,"

// Policy decides what the selected tiles mean on export.
type Policy int

const (
	// Subtractive: selected tiles are removed, the sheet keeps its size.
	Subtractive Policy = iota
	// Compacting: selected tiles are kept and packed into a single row.
	Compacting
)

func (p Policy) String() string {
	switch p {
	case Subtractive:
		return "subtractive"
	case Compacting:
		return "compacting"
	default:
		return "unknown"
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "subtractive", "remove":
		return Subtractive, nil
	case "compacting", "compact", "keep":
		return Compacting, nil
	}
	return Subtractive, fmt.Errorf("unknown policy %q", s)
}

// Export builds the output image for the given selection.
// An empty selection yields ErrEmptySelection instead of an image.
func Export(src image.Image, g Grid, indices []int, p Policy) (*image.NRGBA, error) {
	if src == nil {
		return nil, ErrNoImage
	}
	indices = onGrid(g, indices)
	if len(indices) == 0 {
		return nil, ErrEmptySelection
	}
	switch p {
	case Subtractive:
		return exportSubtractive(src, g, indices), nil
	case Compacting:
		return exportCompacting(src, g, indices), nil
	}
	return nil, fmt.Errorf("unknown policy %d", p)
}

// onGrid drops indices that fall outside g.
func onGrid(g Grid, indices []int) []int {
	valid := make([]int, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < g.Count() {
			valid = append(valid, idx)
		}
	}
	return valid
}

func exportSubtractive(src image.Image, g Grid, indices []int) *image.NRGBA {
	out := imaging.Clone(src)
	for _, idx := range indices {
		r, ok := g.TileRect(idx)
		if !ok {
			continue
		}
		draw.Draw(out, r, image.Transparent, image.Point{}, draw.Src)
	}
	return out
}

func exportCompacting(src image.Image, g Grid, indices []int) *image.NRGBA {
	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)

	out := imaging.New(g.TileWidth*len(sorted), g.TileHeight, color.NRGBA{})
	for slot, idx := range sorted {
		r, _ := g.TileRect(idx)
		tile := imaging.Crop(src, r.Add(src.Bounds().Min))
		out = imaging.Paste(out, tile, image.Pt(slot*g.TileWidth, 0))
	}
	return out
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeDataURI returns img as a base64 PNG data URI.
func EncodeDataURI(img image.Image) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(data), nil
}

// DecodeDataURI is the inverse of EncodeDataURI.
func DecodeDataURI(uri string) (image.Image, error) {
	if !strings.HasPrefix(uri, dataURIPrefix) {
		return nil, fmt.Errorf("not a png data uri")
	}
	data, err := base64.StdEncoding.DecodeString(uri[len(dataURIPrefix):])
	if err != nil {
		return nil, fmt.Errorf("decode data uri: %w", err)
	}
	return imaging.Decode(bytes.NewReader(data))
}

func SavePNG(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Open decodes an image file.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return img, nil
}
