package sheet

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	cfg "github.com/1F47E/go-spritereel/internal/config"
	"github.com/1F47E/go-spritereel/internal/logger"
)

// Drag is the in-progress rectangle selection.
type Drag struct {
	Active     bool
	Start, End image.Point
}

// Rect is the normalized box between Start and End.
func (d Drag) Rect() image.Rectangle {
	return image.Rectangle{Min: d.Start, Max: d.End}.Canon()
}

func (d Drag) moved() bool {
	dx, dy := d.End.X-d.Start.X, d.End.Y-d.Start.Y
	return abs(dx) >= cfg.MinDragDistance || abs(dy) >= cfg.MinDragDistance
}

// Editor owns the selection state for one spritesheet. It is not safe for
// concurrent use: every method must be called from the goroutine that
// owns the editor.
type Editor struct {
	policy Policy

	img      *image.NRGBA
	grid     Grid
	renderer *Renderer

	// requested tile size, applied again on every load
	tileW, tileH int

	sel   *Selection
	drag  Drag
	hover int

	// version changes on every visible state change
	version int
}

func NewEditor(policy Policy, tileW, tileH int) *Editor {
	return &Editor{
		policy: policy,
		tileW:  tileW,
		tileH:  tileH,
		sel:    NewSelection(),
		hover:  -1,
	}
}

// Load installs a freshly decoded sheet. The grid is rebuilt from the
// requested tile size and the selection starts empty.
func (e *Editor) Load(src image.Image) {
	e.img = imaging.Clone(src)
	e.renderer = NewRenderer(e.img)
	e.drag = Drag{}
	e.hover = -1
	e.regrid()
	logger.Scope("editor").Debugf("loaded %dx%d sheet, grid %dx%d of %dx%d tiles",
		e.grid.Width, e.grid.Height, e.grid.Cols, e.grid.Rows, e.grid.TileWidth, e.grid.TileHeight)
}

func (e *Editor) Loaded() bool {
	return e.img != nil
}

func (e *Editor) Image() image.Image {
	if e.img == nil {
		return nil
	}
	return e.img
}

func (e *Editor) Grid() Grid            { return e.grid }
func (e *Editor) Policy() Policy        { return e.policy }
func (e *Editor) Selected() []int       { return e.sel.Indices() }
func (e *Editor) IsSelected(i int) bool { return e.sel.Has(i) }
func (e *Editor) Drag() Drag            { return e.drag }
func (e *Editor) Hover() int            { return e.hover }
func (e *Editor) Version() int          { return e.version }

// SetPolicy changes what the selection means; the selection is kept.
func (e *Editor) SetPolicy(p Policy) {
	if p == e.policy {
		return
	}
	e.policy = p
	e.changed()
}

// SetTileSize changes the grid. Indices do not survive a re-grid so the
// selection is cleared.
func (e *Editor) SetTileSize(w, h int) {
	e.tileW, e.tileH = w, h
	if !e.Loaded() {
		return
	}
	e.regrid()
}

// SetTileSizeInput is SetTileSize for raw user input.
func (e *Editor) SetTileSizeInput(w, h string) {
	if !e.Loaded() {
		e.SetTileSize(ParseTileSize(w, 0), ParseTileSize(h, 0))
		return
	}
	b := e.img.Bounds()
	e.SetTileSize(ParseTileSize(w, b.Dx()), ParseTileSize(h, b.Dy()))
}

func (e *Editor) regrid() {
	b := e.img.Bounds()
	e.grid = NewGrid(b.Dx(), b.Dy(), e.tileW, e.tileH)
	e.tileW, e.tileH = e.grid.TileWidth, e.grid.TileHeight
	e.sel.Clear()
	e.drag = Drag{}
	e.hover = -1
	e.changed()
}

// Click toggles the tile under p. Points off the grid are ignored.
func (e *Editor) Click(p image.Point) bool {
	if !e.Loaded() {
		return false
	}
	idx, ok := e.grid.TileAt(p)
	if !ok {
		return false
	}
	e.sel.Toggle(idx)
	e.changed()
	return true
}

// SelectTiles marks the given indices selected, for headless exports.
// An index off the grid is an error and nothing is changed.
func (e *Editor) SelectTiles(indices []int) error {
	if !e.Loaded() {
		return ErrNoImage
	}
	for _, idx := range indices {
		if idx < 0 || idx >= e.grid.Count() {
			return fmt.Errorf("tile %d out of range 0..%d", idx, e.grid.Count()-1)
		}
	}
	for _, idx := range indices {
		if !e.sel.Has(idx) {
			e.sel.Toggle(idx)
		}
	}
	e.changed()
	return nil
}

// PointerDown starts a drag when p is on the grid.
func (e *Editor) PointerDown(p image.Point) {
	if !e.Loaded() || !e.grid.Contains(p) {
		return
	}
	e.drag = Drag{Active: true, Start: p, End: p}
	e.changed()
}

// PointerMove extends the active drag, or tracks the hovered tile.
func (e *Editor) PointerMove(p image.Point) {
	if !e.Loaded() {
		return
	}
	if e.drag.Active {
		end := image.Pt(
			clamp(p.X, 0, e.grid.ValidWidth()),
			clamp(p.Y, 0, e.grid.ValidHeight()),
		)
		if end != e.drag.End {
			e.drag.End = end
			e.changed()
		}
		return
	}
	e.setHover(p)
}

// PointerUp finishes the drag. A press that barely moved is a click,
// otherwise every tile under the box is toggled.
func (e *Editor) PointerUp() {
	if !e.drag.Active {
		return
	}
	d := e.drag
	e.drag = Drag{}
	if !d.moved() {
		e.Click(d.Start)
		return
	}
	e.sel.ToggleAll(e.grid.TilesIn(d.Start, d.End))
	e.changed()
}

// PointerLeave ends any drag and clears the hover.
func (e *Editor) PointerLeave() {
	e.PointerUp()
	if e.hover != -1 {
		e.hover = -1
		e.changed()
	}
}

func (e *Editor) setHover(p image.Point) {
	idx, ok := e.grid.TileAt(p)
	if !ok {
		idx = -1
	}
	if idx != e.hover {
		e.hover = idx
		e.changed()
	}
}

func (e *Editor) Reset() {
	e.sel.Clear()
	e.drag = Drag{}
	e.changed()
}

// Summary is the selection count readout.
func (e *Editor) Summary() string {
	if e.policy == Compacting {
		return fmt.Sprintf("Selected: %d", e.sel.Len())
	}
	return fmt.Sprintf("Removed: %d", e.sel.Len())
}

// Render draws the current state, nil before an image is loaded.
func (e *Editor) Render() *image.RGBA {
	if !e.Loaded() {
		return nil
	}
	return e.renderer.Render(View{
		Grid:     e.grid,
		Selected: e.sel.Indices(),
		Policy:   e.policy,
		Drag:     e.drag,
		Hover:    e.hover,
		Label:    e.Summary(),
	})
}

func (e *Editor) Export() (*image.NRGBA, error) {
	if !e.Loaded() {
		return nil, ErrNoImage
	}
	return Export(e.img, e.grid, e.sel.Indices(), e.policy)
}

func (e *Editor) ExportDataURI() (string, error) {
	img, err := e.Export()
	if err != nil {
		return "", err
	}
	return EncodeDataURI(img)
}

func (e *Editor) changed() {
	e.version++
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
