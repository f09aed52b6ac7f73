package watch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/1F47E/go-spritereel/internal/api"
	"github.com/1F47E/go-spritereel/internal/logger"
	"github.com/1F47E/go-spritereel/internal/status"
)

// Fetcher reads the current status of a job.
type Fetcher interface {
	Status(ctx context.Context, jobID string) (status.Status, error)
}

// Source tells which channel delivered an update.
type Source string

const (
	SourcePush Source = "push"
	SourcePoll Source = "poll"
)

type Update struct {
	Status status.Status
	Source Source
}

// Watcher follows one job over the status socket and by polling at the
// same time. Both feed the same channel; the newest update wins.
type Watcher struct {
	jobID     string
	socketURL string
	fetcher   Fetcher
	interval  time.Duration
	dialer    *websocket.Dialer

	updates chan Update
	log     *logrus.Entry
}

func New(jobID, socketURL string, fetcher Fetcher, interval time.Duration) *Watcher {
	return &Watcher{
		jobID:     jobID,
		socketURL: socketURL,
		fetcher:   fetcher,
		interval:  interval,
		dialer:    websocket.DefaultDialer,
		updates:   make(chan Update, 8),
		log:       logger.Scope("watch").WithField("job", jobID),
	}
}

func (w *Watcher) Updates() <-chan Update {
	return w.updates
}

// Run blocks until the job finishes or ctx is done, then closes Updates.
// A socket that cannot be opened or drops is not fatal, polling carries on.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.updates)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var finished bool
	var mu sync.Mutex
	emit := func(u Update) {
		select {
		case w.updates <- u:
		case <-ctx.Done():
			return
		}
		if u.Status.Finished() {
			mu.Lock()
			finished = true
			mu.Unlock()
			cancel()
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.push(ctx, emit)
	}()
	go func() {
		defer wg.Done()
		w.poll(ctx, emit)
	}()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if finished {
		return nil
	}
	return ctx.Err()
}

func (w *Watcher) push(ctx context.Context, emit func(Update)) {
	if w.socketURL == "" {
		return
	}
	conn, _, err := w.dialer.DialContext(ctx, w.socketURL, nil)
	if err != nil {
		w.log.Warnf("status socket unavailable, polling only: %v", err)
		return
	}
	defer conn.Close()

	// unblock ReadMessage on cancel
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			switch {
			case ctx.Err() != nil:
			case websocket.IsCloseError(err, websocket.CloseNormalClosure):
				w.log.Infof("status socket closed: %v", err)
			default:
				w.log.Warnf("status socket read: %v", err)
			}
			return
		}
		s, err := status.Parse(data)
		if err != nil {
			w.log.Warnf("failed to parse status message: %v", err)
			continue
		}
		emit(Update{Status: s, Source: SourcePush})
	}
}

func (w *Watcher) poll(ctx context.Context, emit func(Update)) {
	if w.fetcher == nil || w.interval <= 0 {
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s, err := w.fetcher.Status(ctx, w.jobID)
			switch {
			case err == nil:
				emit(Update{Status: s, Source: SourcePoll})
			case ctx.Err() != nil:
				return
			case errors.Is(err, api.ErrJobNotFound):
				w.log.Debug("status not written yet")
			default:
				w.log.Warnf("status poll: %v", err)
			}
		}
	}
}
