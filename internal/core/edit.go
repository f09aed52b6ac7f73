package core

import (
	"fmt"

	"github.com/1F47E/go-spritereel/internal/logger"
	"github.com/1F47E/go-spritereel/internal/meta"
	"github.com/1F47E/go-spritereel/internal/sheet"
	"github.com/1F47E/go-spritereel/internal/storage"
)

// SaveEdit exports the editor selection to out, or next to source when
// out is empty, and writes the yaml manifest beside it.
// Nothing is written for an empty selection.
func SaveEdit(e *sheet.Editor, source, out string) (string, meta.Metadata, error) {
	log := logger.Log.WithField("scope", "core edit")

	img, err := e.Export()
	if err != nil {
		return "", meta.Metadata{}, err
	}
	data, err := sheet.EncodePNG(img)
	if err != nil {
		return "", meta.Metadata{}, err
	}

	if out == "" {
		out = storage.EditedPath(source, e.Policy().String())
	}
	if err := storage.SaveFile(out, data); err != nil {
		return "", meta.Metadata{}, fmt.Errorf("save %s: %w", out, err)
	}

	g := e.Grid()
	m := meta.New(source, out)
	m.Policy = e.Policy().String()
	m.TileWidth, m.TileHeight = g.TileWidth, g.TileHeight
	m.Cols, m.Rows = g.Cols, g.Rows
	m.Tiles = e.Selected()
	m.Width, m.Height = img.Bounds().Dx(), img.Bounds().Dy()
	if err := m.Seal(data); err != nil {
		return out, m, err
	}
	if err := meta.Save(m, meta.Path(out)); err != nil {
		return out, m, fmt.Errorf("save manifest: %w", err)
	}
	log.Infof("saved %s (%dx%d, %d tile(s) %s)", out, m.Width, m.Height, len(m.Tiles), m.Policy)
	return out, m, nil
}
