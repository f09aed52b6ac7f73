package core

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/1F47E/go-spritereel/internal/api"
	"github.com/1F47E/go-spritereel/internal/logger"
	"github.com/1F47E/go-spritereel/internal/status"
	"github.com/1F47E/go-spritereel/internal/storage"
	"github.com/1F47E/go-spritereel/internal/tui"
	"github.com/1F47E/go-spritereel/internal/validation"
)

type processResult struct {
	status status.Status
	err    error
}

// 1. validate and upload the video
// 2. submit the parameters while watching the status socket and polling
// 3. download every output as soon as the status lists it
func (c *Core) Generate(videoPath string) (Result, error) {
	log := logger.Log.WithField("scope", "core generate")
	start := time.Now()

	if err := validation.ValidateFile(videoPath); err != nil {
		return Result{}, err
	}
	if info, err := c.probe(c.ctx, videoPath); err != nil {
		log.Debugf("no video info: %v", err)
	} else {
		log.Infof("%s: %s", filepath.Base(videoPath), info)
	}

	c.send(tui.NewEventSpin(fmt.Sprintf("Uploading %s...", filepath.Base(videoPath))))
	up, err := c.service.Upload(c.ctx, videoPath)
	if err != nil {
		return Result{}, fmt.Errorf("upload: %w", err)
	}
	log.Debugf("job %s created, preview at %s", up.JobID, up.Preview)
	log.Infof("job %s: %s", up.JobID, c.cfg.Process)

	res, err := c.follow(up.JobID, true)
	res.Took = time.Since(start)
	return res, err
}

// Watch follows a job that was already submitted.
func (c *Core) Watch(jobID string) (Result, error) {
	start := time.Now()
	res, err := c.follow(jobID, false)
	res.Took = time.Since(start)
	return res, err
}

// Download saves the outputs a job has right now, without waiting.
func (c *Core) Download(jobID string) (Result, error) {
	res := Result{JobID: jobID}
	dir, err := storage.CreateJobDir(c.cfg.OutputDir, jobID)
	if err != nil {
		return res, err
	}
	s, err := c.service.Status(c.ctx, jobID)
	if err != nil {
		return res, fmt.Errorf("status: %w", err)
	}
	res.Status = s

	d := c.startDownloads(dir)
	d.queue(s)
	res.Outputs, err = d.wait()
	if err == nil && len(res.Outputs) == 0 {
		err = fmt.Errorf("job %s has no outputs yet", jobID)
	}
	return res, err
}

func (c *Core) follow(jobID string, submit bool) (Result, error) {
	log := logger.Log.WithField("scope", "core follow").WithField("job", jobID)
	res := Result{JobID: jobID}

	dir, err := storage.CreateJobDir(c.cfg.OutputDir, jobID)
	if err != nil {
		return res, err
	}

	ctx, cancel := context.WithCancel(c.ctx)
	defer cancel()

	d := c.startDownloads(dir)

	w := c.newWatcher(jobID)
	go func() {
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			log.Debugf("watcher stopped: %v", err)
		}
	}()
	updates := w.Updates()

	var processCh chan processResult
	if submit {
		processCh = make(chan processResult, 1)
		params := api.NewParams(jobID, c.cfg.Process)
		go func() {
			s, err := c.service.Process(ctx, params)
			processCh <- processResult{s, err}
		}()
		c.send(tui.NewEventSpin("Starting..."))
	}

	var last status.Status
	var runErr error
	apply := func(s status.Status) {
		d.queue(s)
		if len(s.Steps) == 0 {
			// nothing to show, keep the last progress on screen
			return
		}
		last = s
		p := s.Progress()
		c.send(tui.NewEventBar(p.Text, p.Percent))
	}

loop:
	for {
		select {
		case <-c.ctx.Done():
			runErr = c.ctx.Err()
			break loop

		case u, ok := <-updates:
			if !ok {
				// watcher ends on a finished status or on cancel
				updates = nil
				if last.Finished() || processCh == nil {
					break loop
				}
				continue
			}
			log.Debugf("%s update: %s", u.Source, u.Status.Progress().Text)
			apply(u.Status)
			if last.Finished() {
				break loop
			}

		case pr := <-processCh:
			processCh = nil
			if pr.err != nil {
				runErr = fmt.Errorf("process: %w", pr.err)
				break loop
			}
			apply(pr.status)
			if last.Finished() || updates == nil {
				break loop
			}
		}
	}
	cancel()

	res.Status = last
	outputs, dlErr := d.wait()
	res.Outputs = outputs

	if runErr == nil {
		if p := last.Progress(); p.Failed != "" {
			runErr = fmt.Errorf("job %s failed at step %s", jobID, p.Failed)
		} else if !p.Completed {
			runErr = fmt.Errorf("job %s did not finish", jobID)
		}
	}
	if runErr == nil {
		runErr = dlErr
	}

	if runErr != nil {
		c.send(tui.NewEventDone("❌ " + runErr.Error()))
	} else {
		c.send(tui.NewEventDone("✅ " + last.Progress().Text))
	}
	return res, runErr
}
