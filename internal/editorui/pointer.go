package editorui

import (
	"image"

	"github.com/1F47E/go-spritereel/internal/sheet"
)

// pointer turns polled mouse state into editor pointer events.
// Cursor positions are in layout coordinates, which are image pixels.
type pointer struct {
	down bool
	in   bool
	pos  image.Point
}

func (p *pointer) update(e *sheet.Editor, pos image.Point, pressed bool) {
	g := e.Grid()
	inside := pos.In(image.Rect(0, 0, g.Width, g.Height))

	switch {
	case pressed && !p.down:
		e.PointerDown(pos)
	case !pressed && p.down:
		e.PointerMove(pos)
		e.PointerUp()
	case pos != p.pos:
		if inside || p.down {
			e.PointerMove(pos)
		} else if p.in {
			e.PointerLeave()
		}
	}
	p.down, p.in, p.pos = pressed, inside, pos
}
