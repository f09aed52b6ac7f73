package editorui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/sirupsen/logrus"

	"github.com/1F47E/go-spritereel/internal/config"
	"github.com/1F47E/go-spritereel/internal/core"
	"github.com/1F47E/go-spritereel/internal/logger"
	"github.com/1F47E/go-spritereel/internal/sheet"
)

const (
	windowWidth  = 960
	windowHeight = 640
	tileStep     = 8
)

type Options struct {
	Policy     sheet.Policy
	TileWidth  int
	TileHeight int
	Out        string // export path, next to the sheet when empty
	Watch      bool   // reload when the sheet file changes
	Retry      time.Duration
}

// Game is the interactive tile editor for one spritesheet file.
type Game struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    *logrus.Entry

	editor *sheet.Editor
	path   string
	out    string
	retry  time.Duration

	ptr      pointer
	loads    chan loadResult
	stopLoad context.CancelFunc
	gen      int
	reloader *Reloader
	notice   string
	frame    *ebiten.Image
	drawn    int
}

func NewGame(ctx context.Context, path string, opts Options) (*Game, error) {
	if opts.Retry <= 0 {
		opts.Retry = config.RetryDelay
	}
	ctx, cancel := context.WithCancel(ctx)
	g := &Game{
		ctx:    ctx,
		cancel: cancel,
		log:    logger.Scope("editor ui"),
		editor: sheet.NewEditor(opts.Policy, opts.TileWidth, opts.TileHeight),
		path:   path,
		out:    opts.Out,
		retry:  opts.Retry,
		loads:  make(chan loadResult, 1),
		notice: "Loading " + filepath.Base(path) + "...",
		drawn:  -1,
	}
	if opts.Watch {
		r, err := NewReloader(path)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("watch %s: %w", path, err)
		}
		g.reloader = r
	}
	g.startLoad()
	return g, nil
}

func (g *Game) Editor() *sheet.Editor {
	return g.editor
}

func (g *Game) Close() {
	g.cancel()
	if g.reloader != nil {
		_ = g.reloader.Close()
	}
}

// startLoad replaces any running load with a fresh one.
func (g *Game) startLoad() {
	if g.stopLoad != nil {
		g.stopLoad()
	}
	ctx, cancel := context.WithCancel(g.ctx)
	g.stopLoad = cancel
	g.gen++
	go load(ctx, g.gen, g.path, g.retry, g.loads)
}

func (g *Game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	g.pollLoads()
	g.pollReloads()

	if isKeyJustPressed(ebiten.KeyEscape) || isKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if !g.editor.Loaded() {
		return nil
	}

	x, y := cursorPosition()
	g.ptr.update(g.editor, image.Pt(x, y), isMouseButtonPressed(ebiten.MouseButtonLeft))
	g.handleKeys()
	return nil
}

func (g *Game) pollLoads() {
	select {
	case r := <-g.loads:
		if r.gen != g.gen {
			return
		}
		if r.err != nil {
			g.log.Debugf("load %s: %v", g.path, r.err)
			g.notice = "Failed to load spritesheet. Retrying..."
			return
		}
		g.editor.Load(r.img)
		g.ptr = pointer{}
		g.notice = ""
		g.log.Infof("loaded %s", g.path)
	default:
	}
}

func (g *Game) pollReloads() {
	if g.reloader == nil {
		return
	}
	select {
	case name := <-g.reloader.Events:
		g.log.Infof("%s changed, reloading", name)
		g.startLoad()
	case err := <-g.reloader.Errors:
		g.log.Warnf("watch %s: %v", g.path, err)
	default:
	}
}

func (g *Game) handleKeys() {
	e := g.editor
	switch {
	case isKeyJustPressed(ebiten.KeyR):
		e.Reset()
		g.notice = ""
	case isKeyJustPressed(ebiten.KeyP):
		if e.Policy() == sheet.Compacting {
			e.SetPolicy(sheet.Subtractive)
		} else {
			e.SetPolicy(sheet.Compacting)
		}
		g.notice = "Mode: " + e.Policy().String()
	case isKeyJustPressed(ebiten.KeyEqual), isKeyJustPressed(ebiten.KeyNumpadAdd):
		g.stepTile(tileStep)
	case isKeyJustPressed(ebiten.KeyMinus), isKeyJustPressed(ebiten.KeyNumpadSubtract):
		g.stepTile(-tileStep)
	case isKeyJustPressed(ebiten.KeyS):
		g.save()
	case isKeyJustPressed(ebiten.KeyC):
		g.copy()
	}
}

func (g *Game) stepTile(d int) {
	gr := g.editor.Grid()
	w, h := max(gr.TileWidth+d, tileStep), max(gr.TileHeight+d, tileStep)
	g.editor.SetTileSize(w, h)
	gr = g.editor.Grid()
	g.notice = fmt.Sprintf("Tile: %dx%d (%dx%d)", gr.TileWidth, gr.TileHeight, gr.Cols, gr.Rows)
}

func (g *Game) save() {
	out, _, err := core.SaveEdit(g.editor, g.path, g.out)
	switch {
	case errors.Is(err, sheet.ErrEmptySelection):
		g.notice = "Nothing selected"
	case err != nil:
		g.log.Errorf("save: %v", err)
		g.notice = "Save failed: " + err.Error()
	default:
		g.notice = "Saved " + filepath.Base(out)
	}
}

func (g *Game) copy() {
	img, err := g.editor.Export()
	if errors.Is(err, sheet.ErrEmptySelection) {
		g.notice = "Nothing selected"
		return
	}
	if err != nil {
		g.notice = "Copy failed: " + err.Error()
		return
	}
	data, err := sheet.EncodePNG(img)
	if err == nil {
		err = copyPNG(data)
	}
	if err != nil {
		g.log.Errorf("copy: %v", err)
		g.notice = "Copy failed: " + err.Error()
		return
	}
	g.notice = "Copied to clipboard"
}

func (g *Game) Draw(screen *ebiten.Image) {
	if !g.editor.Loaded() {
		ebitenutil.DebugPrint(screen, g.notice)
		return
	}
	if v := g.editor.Version(); v != g.drawn || g.frame == nil {
		g.redraw()
		g.drawn = v
	}
	screen.DrawImage(g.frame, nil)
	if g.notice != "" {
		ebitenutil.DebugPrintAt(screen, g.notice, 4, 4)
	}
}

func (g *Game) redraw() {
	rgba := g.editor.Render()
	if g.frame != nil && g.frame.Bounds().Size() == rgba.Bounds().Size() {
		g.frame.WritePixels(rgba.Pix)
		return
	}
	if g.frame != nil {
		g.frame.Deallocate()
	}
	g.frame = ebiten.NewImageFromImage(rgba)
}

// Layout keeps one logical pixel per sheet pixel so cursor positions
// map straight onto the grid.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if !g.editor.Loaded() {
		return windowWidth, windowHeight
	}
	gr := g.editor.Grid()
	return gr.Width, gr.Height
}

// Run opens the editor window and blocks until it is closed.
func Run(ctx context.Context, path string, opts Options) error {
	g, err := NewGame(ctx, path, opts)
	if err != nil {
		return err
	}
	defer g.Close()

	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetWindowTitle("spritereel - " + filepath.Base(path))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(g)
}
