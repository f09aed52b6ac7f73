package sheet

import (
	"image"
	"strconv"
	"strings"

	cfg "github.com/1F47E/go-spritereel/internal/config"
)

// Grid splits an image of Width x Height into fixed size tiles.
// Tiles are numbered row-major from zero: idx = row*Cols + col.
// Pixels right of ValidWidth or below ValidHeight belong to no tile.
type Grid struct {
	Width, Height         int
	TileWidth, TileHeight int
	Cols, Rows            int
}

// NewGrid builds the grid for a w x h image. Non-positive tile sizes fall
// back to the default and every tile size is clamped to the image size.
func NewGrid(w, h, tileW, tileH int) Grid {
	if w <= 0 || h <= 0 {
		return Grid{}
	}
	tileW = normalizeTile(tileW, w)
	tileH = normalizeTile(tileH, h)
	return Grid{
		Width:      w,
		Height:     h,
		TileWidth:  tileW,
		TileHeight: tileH,
		Cols:       w / tileW,
		Rows:       h / tileH,
	}
}

// ParseTileSize reads a tile size typed by the user. Anything that is not
// a positive integer becomes the default, the result never exceeds dim.
func ParseTileSize(s string, dim int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		v = 0
	}
	return normalizeTile(v, dim)
}

func normalizeTile(v, dim int) int {
	if v <= 0 {
		v = cfg.DefaultTileSize
	}
	if dim > 0 && v > dim {
		v = dim
	}
	return v
}

func (g Grid) ValidWidth() int  { return g.Cols * g.TileWidth }
func (g Grid) ValidHeight() int { return g.Rows * g.TileHeight }
func (g Grid) Count() int       { return g.Cols * g.Rows }

// Contains reports whether p lies on a tile.
func (g Grid) Contains(p image.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.ValidWidth() && p.Y < g.ValidHeight()
}

// TileAt maps a pixel to its tile index.
func (g Grid) TileAt(p image.Point) (int, bool) {
	if !g.Contains(p) {
		return -1, false
	}
	col := p.X / g.TileWidth
	row := p.Y / g.TileHeight
	return row*g.Cols + col, true
}

// TileRect is the inverse of TileAt.
func (g Grid) TileRect(idx int) (image.Rectangle, bool) {
	if idx < 0 || idx >= g.Count() {
		return image.Rectangle{}, false
	}
	col := idx % g.Cols
	row := idx / g.Cols
	x := col * g.TileWidth
	y := row * g.TileHeight
	return image.Rect(x, y, x+g.TileWidth, y+g.TileHeight), true
}

// TilesIn returns the indices of every tile touched by the box spanned by
// a and b, in row-major order. The far edge is exclusive so a box ending
// exactly on a tile boundary does not pull in the next tile.
func (g Grid) TilesIn(a, b image.Point) []int {
	if g.Count() == 0 {
		return nil
	}
	x1, x2 := minmax(clamp(a.X, 0, g.ValidWidth()), clamp(b.X, 0, g.ValidWidth()))
	y1, y2 := minmax(clamp(a.Y, 0, g.ValidHeight()), clamp(b.Y, 0, g.ValidHeight()))
	if x1 >= g.ValidWidth() || y1 >= g.ValidHeight() {
		return nil
	}
	// zero-width boxes still cover the column they sit in
	x2 = max(x2, x1+1)
	y2 = max(y2, y1+1)

	startCol, endCol := x1/g.TileWidth, (x2-1)/g.TileWidth
	startRow, endRow := y1/g.TileHeight, (y2-1)/g.TileHeight

	out := make([]int, 0, (endCol-startCol+1)*(endRow-startRow+1))
	for row := startRow; row <= endRow; row++ {
		for col := startCol; col <= endCol; col++ {
			out = append(out, row*g.Cols+col)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minmax(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
