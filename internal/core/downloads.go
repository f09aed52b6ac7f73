package core

import (
	"fmt"
	"sync"

	"github.com/1F47E/go-spritereel/internal/job"
	"github.com/1F47E/go-spritereel/internal/logger"
	"github.com/1F47E/go-spritereel/internal/status"
	"github.com/1F47E/go-spritereel/internal/storage"
)

// outputs the client downloads, in display order
var outputKeys = []string{status.OutputGIF, status.OutputSpritesheet}

// downloads queues every output as soon as a status names it and collects
// what the fetch workers saved.
type downloads struct {
	dir     string
	jobs    chan job.JobFetch
	results chan job.JobFetchRes
	queued  map[string]string // key -> output path

	wg      sync.WaitGroup
	done    chan struct{}
	saved   map[string]string
	failure error
}

func (c *Core) startDownloads(dir string) *downloads {
	d := &downloads{
		dir:     dir,
		jobs:    make(chan job.JobFetch, len(outputKeys)*2),
		results: make(chan job.JobFetchRes, len(outputKeys)*2),
		queued:  make(map[string]string),
		done:    make(chan struct{}),
		saved:   make(map[string]string),
	}
	for i := 1; i <= c.workersNum; i++ {
		d.wg.Add(1)
		go func(i int) {
			defer d.wg.Done()
			c.worker.WorkerFetch(i, d.jobs, d.results)
		}(i)
	}
	go d.collect()
	return d
}

func (d *downloads) collect() {
	log := logger.Log.WithField("scope", "core downloads")
	defer close(d.done)
	for r := range d.results {
		if r.Err != nil {
			log.Warnf("%s not saved after %d attempt(s): %v", r.Key, r.Attempts, r.Err)
			if d.failure == nil {
				d.failure = r.Err
			}
			continue
		}
		log.Debugf("%s saved to %s", r.Key, r.Dest)
		d.saved[r.Key] = r.Dest
	}
}

// queue sends a fetch job for every output that is new or moved.
func (d *downloads) queue(s status.Status) {
	for _, key := range outputKeys {
		p, ok := s.Output(key)
		if !ok || d.queued[key] == p {
			continue
		}
		d.queued[key] = p
		d.jobs <- job.New(key, p, storage.OutputDest(d.dir, p))
	}
}

// wait closes the queue and returns the saved files.
func (d *downloads) wait() (map[string]string, error) {
	close(d.jobs)
	d.wg.Wait()
	close(d.results)
	<-d.done
	if d.failure != nil {
		return d.saved, fmt.Errorf("download: %w", d.failure)
	}
	return d.saved, nil
}
