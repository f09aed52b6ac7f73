package core

import (
	"context"
	"time"

	"github.com/1F47E/go-spritereel/internal/api"
	"github.com/1F47E/go-spritereel/internal/config"
	"github.com/1F47E/go-spritereel/internal/status"
	"github.com/1F47E/go-spritereel/internal/tui"
	"github.com/1F47E/go-spritereel/internal/video"
	"github.com/1F47E/go-spritereel/internal/watch"
	"github.com/1F47E/go-spritereel/internal/workers"
)

// Service is the part of the api client the core drives.
type Service interface {
	Upload(ctx context.Context, videoPath string) (api.UploadResult, error)
	Process(ctx context.Context, p api.Params) (status.Status, error)
	Status(ctx context.Context, jobID string) (status.Status, error)
	Fetch(ctx context.Context, outputPath string) ([]byte, error)
	StatusSocketURL(jobID string) string
}

type Core struct {
	ctx      context.Context
	eventsCh chan tui.Event
	service  Service
	cfg      config.Config
	worker   *workers.Worker

	// overridable in tests
	probe      func(ctx context.Context, path string) (video.Info, error)
	newWatcher func(jobID string) *watch.Watcher
	workersNum int
}

func NewCore(ctx context.Context, eventsCh chan tui.Event, service Service, cfg config.Config) *Core {
	c := &Core{
		ctx:        ctx,
		eventsCh:   eventsCh,
		service:    service,
		cfg:        cfg,
		worker:     workers.NewWorker(ctx, service, eventsCh, cfg.Retry, config.MaxFetchTries),
		probe:      video.Probe,
		workersNum: 2, // one per output
	}
	c.newWatcher = func(jobID string) *watch.Watcher {
		return watch.New(jobID, service.StatusSocketURL(jobID), service, c.cfg.Poll)
	}
	return c
}

// Result is what a finished job left on disk.
type Result struct {
	JobID   string
	Status  status.Status
	Outputs map[string]string // output key -> local file
	Took    time.Duration
}

func (c *Core) send(e tui.Event) {
	if c.eventsCh == nil {
		return
	}
	select {
	case c.eventsCh <- e:
	case <-c.ctx.Done():
	}
}
