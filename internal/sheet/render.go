package sheet

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	colorRemoved = color.NRGBA{220, 53, 69, 102}
	colorKept    = color.NRGBA{40, 167, 69, 102}
	colorGrid    = color.NRGBA{255, 255, 255, 102}
	colorDrag    = color.NRGBA{0, 123, 255, 230}
	colorHover   = color.NRGBA{255, 193, 7, 230}
	colorLabelBg = color.NRGBA{0, 0, 0, 160}
	colorLabel   = color.NRGBA{255, 255, 255, 255}
)

const (
	dashOn     = 6
	dashOff    = 4
	dragStroke = 2
	labelPad   = 4
)

// View is everything the renderer needs for one frame.
type View struct {
	Grid     Grid
	Selected []int
	Policy   Policy
	Drag     Drag
	Hover    int // -1 for none
	Label    string
}

// Renderer draws the editor overlay on top of a cached copy of the sheet.
// The source is converted once, every frame starts from that copy.
type Renderer struct {
	base  *image.RGBA
	frame *image.RGBA
	face  font.Face
}

func NewRenderer(src image.Image) *Renderer {
	b := src.Bounds()
	base := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(base, base.Bounds(), src, b.Min, draw.Src)
	return &Renderer{
		base:  base,
		frame: image.NewRGBA(base.Bounds()),
		face:  basicfont.Face7x13,
	}
}

func (r *Renderer) Bounds() image.Rectangle {
	return r.base.Bounds()
}

// Render redraws the whole frame. The returned image is reused by the
// next call.
func (r *Renderer) Render(v View) *image.RGBA {
	draw.Draw(r.frame, r.frame.Bounds(), r.base, image.Point{}, draw.Src)

	r.drawGrid(v.Grid)

	fill := colorRemoved
	if v.Policy == Compacting {
		fill = colorKept
	}
	for _, idx := range v.Selected {
		if rect, ok := v.Grid.TileRect(idx); ok {
			draw.Draw(r.frame, rect, image.NewUniform(fill), image.Point{}, draw.Over)
		}
	}

	if v.Drag.Active {
		r.dashedRect(v.Drag.Rect(), colorDrag, dragStroke)
	} else if rect, ok := v.Grid.TileRect(v.Hover); ok {
		r.strokeRect(rect, colorHover, 1)
	}

	if v.Label != "" {
		r.drawLabel(v.Label)
	}
	return r.frame
}

func (r *Renderer) drawGrid(g Grid) {
	if g.Count() == 0 {
		return
	}
	line := image.NewUniform(colorGrid)
	vw, vh := g.ValidWidth(), g.ValidHeight()
	for x := g.TileWidth; x <= vw; x += g.TileWidth {
		draw.Draw(r.frame, image.Rect(x-1, 0, x, vh), line, image.Point{}, draw.Over)
	}
	for y := g.TileHeight; y <= vh; y += g.TileHeight {
		draw.Draw(r.frame, image.Rect(0, y-1, vw, y), line, image.Point{}, draw.Over)
	}
}

func (r *Renderer) strokeRect(rect image.Rectangle, c color.Color, w int) {
	u := image.NewUniform(c)
	for _, side := range rectSides(rect, w) {
		draw.Draw(r.frame, side, u, image.Point{}, draw.Over)
	}
}

// dashedRect strokes rect with a 6 on / 4 off dash pattern
func (r *Renderer) dashedRect(rect image.Rectangle, c color.Color, w int) {
	if rect.Empty() {
		return
	}
	u := image.NewUniform(c)
	period := dashOn + dashOff
	for x := rect.Min.X; x < rect.Max.X; x += period {
		end := min(x+dashOn, rect.Max.X)
		draw.Draw(r.frame, image.Rect(x, rect.Min.Y, end, rect.Min.Y+w), u, image.Point{}, draw.Over)
		draw.Draw(r.frame, image.Rect(x, rect.Max.Y-w, end, rect.Max.Y), u, image.Point{}, draw.Over)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y += period {
		end := min(y+dashOn, rect.Max.Y)
		draw.Draw(r.frame, image.Rect(rect.Min.X, y, rect.Min.X+w, end), u, image.Point{}, draw.Over)
		draw.Draw(r.frame, image.Rect(rect.Max.X-w, y, rect.Max.X, end), u, image.Point{}, draw.Over)
	}
}

func (r *Renderer) drawLabel(s string) {
	d := &font.Drawer{
		Dst:  r.frame,
		Src:  image.NewUniform(colorLabel),
		Face: r.face,
	}
	metrics := r.face.Metrics()
	textW := d.MeasureString(s).Ceil()
	textH := (metrics.Ascent + metrics.Descent).Ceil()

	bounds := r.frame.Bounds()
	bg := image.Rect(0, bounds.Max.Y-textH-2*labelPad, textW+2*labelPad, bounds.Max.Y)
	draw.Draw(r.frame, bg, image.NewUniform(colorLabelBg), image.Point{}, draw.Over)

	d.Dot = fixed.P(labelPad, bounds.Max.Y-labelPad-metrics.Descent.Ceil())
	d.DrawString(s)
}

func rectSides(r image.Rectangle, w int) []image.Rectangle {
	return []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w),
		image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Max.Y),
		image.Rect(r.Max.X-w, r.Min.Y, r.Max.X, r.Max.Y),
	}
}
