package editorui

import (
	"context"
	"image"
	"time"

	"github.com/1F47E/go-spritereel/internal/sheet"
)

type loadResult struct {
	gen int
	img image.Image
	err error
}

// load decodes path off the game loop. Results carry gen so the game can
// drop those of a load it already replaced. Failures are reported and retried
// until a decode succeeds or ctx is done.
func load(ctx context.Context, gen int, path string, retry time.Duration, out chan<- loadResult) {
	for {
		img, err := sheet.Open(path)
		select {
		case out <- loadResult{gen: gen, img: img, err: err}:
		case <-ctx.Done():
			return
		}
		if err == nil {
			return
		}
		select {
		case <-time.After(retry):
		case <-ctx.Done():
			return
		}
	}
}
