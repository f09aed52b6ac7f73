package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	cfg "github.com/1F47E/go-spritereel/internal/config"
	"github.com/1F47E/go-spritereel/internal/logger"
	"github.com/1F47E/go-spritereel/internal/progress"
	"github.com/1F47E/go-spritereel/internal/status"
)

var ErrJobNotFound = errors.New("job not found")

// HTTPError is a non-2xx answer. Msg is the body text sent by the service.
type HTTPError struct {
	Code int
	Msg  string
}

func (e *HTTPError) Error() string {
	return e.Msg
}

type UploadResult struct {
	JobID   string `json:"job_id"`
	Preview string `json:"preview"`
}

// Params is the processing request body.
type Params struct {
	JobID       string  `json:"job_id"`
	Threshold   float64 `json:"threshold"`
	Similarity  float64 `json:"similarity"`
	Tile        string  `json:"tile"`
	ChromaColor string  `json:"chroma_color"`
	FPS         int     `json:"fps"`
	Size        int     `json:"size"`
}

func NewParams(jobID string, p cfg.Process) Params {
	return Params{
		JobID:       jobID,
		Threshold:   p.Threshold,
		Similarity:  p.Similarity,
		Tile:        p.Tile,
		ChromaColor: p.ChromaColor,
		FPS:         p.FPS,
		Size:        p.Size,
	}
}

type Client struct {
	base     *url.URL
	http     *http.Client
	session  string
	progress io.Writer
	now      func() time.Time
	log      *logrus.Entry
}

type Option func(*Client)

// WithHTTPClient replaces the default http client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithProgress renders upload progress to w.
func WithProgress(w io.Writer) Option {
	return func(c *Client) { c.progress = w }
}

func New(server string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(server, "/"))
	if err != nil {
		return nil, fmt.Errorf("bad server url %q: %w", server, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("bad server url %q: scheme must be http or https", server)
	}
	session := uuid.NewString()
	c := &Client{
		base:     u,
		http:     &http.Client{},
		session:  session,
		progress: io.Discard,
		now:      time.Now,
		log:      logger.Scope("api").WithField("session", session[:8]),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Upload streams the video as a multipart form.
func (c *Client) Upload(ctx context.Context, videoPath string) (UploadResult, error) {
	var res UploadResult

	f, err := os.Open(videoPath)
	if err != nil {
		return res, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return res, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	bar := progress.Bytes(info.Size(), "Uploading...", c.progress)
	go func() {
		part, err := mw.CreateFormFile(cfg.UploadFieldName, filepath.Base(videoPath))
		if err == nil {
			_, err = io.Copy(part, io.TeeReader(f, bar))
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, cfg.PathUpload, pr)
	if err != nil {
		_ = pr.Close()
		return res, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	if err := c.doJSON(req, "Upload failed", &res); err != nil {
		return res, err
	}
	if res.JobID == "" {
		return res, fmt.Errorf("upload response has no job id")
	}
	c.log.Debugf("uploaded %s as job %s", videoPath, res.JobID)
	return res, nil
}

// Process submits the parameters. The service answers only once the whole
// pipeline is over, so callers usually run this next to a status watcher.
func (c *Client) Process(ctx context.Context, p Params) (status.Status, error) {
	var s status.Status
	body, err := json.Marshal(p)
	if err != nil {
		return s, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, cfg.PathProcess, bytes.NewReader(body))
	if err != nil {
		return s, err
	}
	req.Header.Set("Content-Type", "application/json")
	err = c.doJSON(req, "Processing failed", &s)
	return s, err
}

// Status reads the status document the service keeps next to the outputs.
func (c *Client) Status(ctx context.Context, jobID string) (status.Status, error) {
	data, err := c.Fetch(ctx, JobPath(jobID, cfg.StatusFile))
	if err != nil {
		var he *HTTPError
		if errors.As(err, &he) && he.Code == http.StatusNotFound {
			return status.Status{}, ErrJobNotFound
		}
		return status.Status{}, err
	}
	return status.Parse(data)
}

// Fetch downloads an output path as given in the status outputs. A
// timestamp query defeats caches that still hold a previous result.
func (c *Client) Fetch(ctx context.Context, outputPath string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, bustCache(outputPath, c.now()), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkResponse(resp, "Fetch failed"); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

// OutputURL is the absolute url of an output path.
func (c *Client) OutputURL(outputPath string) string {
	return c.resolve(outputPath).String()
}

// StatusSocketURL is the push channel for jobID.
func (c *Client) StatusSocketURL(jobID string) string {
	u := c.resolve(cfg.PathStatusWS)
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.RawQuery = url.Values{"job_id": {jobID}}.Encode()
	return u.String()
}

// JobPath is the output path of a file inside the job folder.
func JobPath(jobID, name string) string {
	return path.Join(cfg.PathOutputs, jobID, name)
}

func (c *Client) resolve(p string) *url.URL {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	ref, err := url.Parse(p)
	if err != nil {
		ref = &url.URL{Path: p}
	}
	return c.base.ResolveReference(ref)
}

func (c *Client) newRequest(ctx context.Context, method, p string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(p).String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	req.Header.Set("X-Session-Id", c.session)
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	log := c.log.WithField("request", req.Header.Get("X-Request-Id")[:8])
	if err != nil {
		log.Debugf("%s %s failed: %v", req.Method, req.URL.Path, err)
		return nil, err
	}
	log.Debugf("%s %s -> %d in %s", req.Method, req.URL.Path, resp.StatusCode, time.Since(start))
	return resp, nil
}

func (c *Client) doJSON(req *http.Request, failMsg string, out any) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkResponse(resp, failMsg); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func checkResponse(resp *http.Response, failMsg string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = failMsg
	}
	return &HTTPError{Code: resp.StatusCode, Msg: msg}
}

func bustCache(p string, now time.Time) string {
	sep := "?"
	if strings.Contains(p, "?") {
		sep = "&"
	}
	return p + sep + "t=" + strconv.FormatInt(now.UnixMilli(), 10)
}
