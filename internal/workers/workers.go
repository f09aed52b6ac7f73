package workers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/png"
	"time"

	"github.com/1F47E/go-spritereel/internal/job"
	"github.com/1F47E/go-spritereel/internal/logger"
	"github.com/1F47E/go-spritereel/internal/storage"
	"github.com/1F47E/go-spritereel/internal/tui"
)

var log = logger.Log

// Fetcher downloads one output path.
type Fetcher interface {
	Fetch(ctx context.Context, outputPath string) ([]byte, error)
}

type Worker struct {
	ctx      context.Context
	fetcher  Fetcher
	eventsCh chan<- tui.Event
	retry    time.Duration
	maxTries int
}

func NewWorker(ctx context.Context, fetcher Fetcher, eventsCh chan<- tui.Event, retry time.Duration, maxTries int) *Worker {
	if maxTries < 1 {
		maxTries = 1
	}
	return &Worker{
		ctx:      ctx,
		fetcher:  fetcher,
		eventsCh: eventsCh,
		retry:    retry,
		maxTries: maxTries,
	}
}

// WorkerFetch downloads outputs until jobs is closed. A download that is
// not a decodable image yet counts as failed and is retried after a pause.
func (w *Worker) WorkerFetch(id int, jobs <-chan job.JobFetch, res chan<- job.JobFetchRes) {
	name := fmt.Sprintf("WorkerFetch #%d", id)
	log.Debugf("%s started", name)
	defer log.Debugf("%s finished", name)

	for {
		select {
		case <-w.ctx.Done():
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			log.Debugf("%s got %s", name, j.Print())
			r := w.fetch(name, j)
			select {
			case res <- r:
			case <-w.ctx.Done():
				return
			}
		}
	}
}

func (w *Worker) fetch(name string, j job.JobFetch) job.JobFetchRes {
	var err error
	for j.Attempt = 1; j.Attempt <= w.maxTries; j.Attempt++ {
		err = w.fetchOnce(j)
		if err == nil {
			log.Debugf("%s saved %s after %d attempt(s)", name, j.Dest, j.Attempt)
			return job.JobFetchRes{Key: j.Key, Dest: j.Dest, Attempts: j.Attempt}
		}
		log.Debugf("%s attempt %d for %s failed: %v", name, j.Attempt, j.Key, err)
		if j.Attempt == w.maxTries {
			break
		}
		w.notify(tui.NewEventText(fmt.Sprintf("Failed to load %s. Retrying...", j.Key)))
		select {
		case <-time.After(w.retry):
		case <-w.ctx.Done():
			return job.JobFetchRes{Key: j.Key, Dest: j.Dest, Attempts: j.Attempt, Err: w.ctx.Err()}
		}
	}
	return job.JobFetchRes{
		Key:      j.Key,
		Dest:     j.Dest,
		Attempts: w.maxTries,
		Err:      fmt.Errorf("fetch %s: %w", j.Key, err),
	}
}

func (w *Worker) fetchOnce(j job.JobFetch) error {
	data, err := w.fetcher.Fetch(w.ctx, j.Path)
	if err != nil {
		return err
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("not an image yet: %w", err)
	}
	return storage.SaveFile(j.Dest, data)
}

func (w *Worker) notify(e tui.Event) {
	if w.eventsCh == nil {
		return
	}
	select {
	case w.eventsCh <- e:
	default:
		// display busy, drop the notice
	}
}
