package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	cfg "github.com/1F47E/go-spritereel/internal/config"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return c
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, s := range []string{"ftp://x", "::", "localhost:8080"} {
		if _, err := New(s); err == nil {
			t.Errorf("New(%q) should fail", s)
		}
	}
}

func TestUpload(t *testing.T) {
	video := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(video, []byte("fake video bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.PathUpload, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Request-Id") == "" {
			t.Error("missing request id")
		}
		file, header, err := r.FormFile(cfg.UploadFieldName)
		if err != nil {
			http.Error(w, "video field missing", http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "fake video bytes" || header.Filename != "clip.mp4" {
			t.Errorf("got %q as %q", data, header.Filename)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"job_id": "job_42", "preview": "/outputs/job_42/clip.mp4"})
	})
	c := newTestClient(t, mux)

	res, err := c.Upload(context.Background(), video)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	want := UploadResult{JobID: "job_42", Preview: "/outputs/job_42/clip.mp4"}
	if !reflect.DeepEqual(res, want) {
		t.Errorf("got %+v, want %+v", res, want)
	}
}

func TestUploadErrorBody(t *testing.T) {
	video := filepath.Join(t.TempDir(), "clip.mp4")
	_ = os.WriteFile(video, []byte("x"), 0644)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "only mp4 videos are allowed", http.StatusUnsupportedMediaType)
	}))
	_, err := c.Upload(context.Background(), video)
	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("err = %v, want HTTPError", err)
	}
	if he.Code != http.StatusUnsupportedMediaType || he.Msg != "only mp4 videos are allowed" {
		t.Errorf("got %d %q", he.Code, he.Msg)
	}
}

func TestProcess(t *testing.T) {
	var got Params
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != cfg.PathProcess || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("bad request %s %s", r.URL.Path, r.Header.Get("Content-Type"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"jobId":"job_1","steps":[{"name":"gif","status":"done"}],"outputs":{"gif":"/outputs/job_1/final.gif"}}`)
	}))

	p := NewParams("job_1", cfg.Default().Process)
	s, err := c.Process(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, p) {
		t.Errorf("server got %+v, want %+v", got, p)
	}
	if s.JobID != "job_1" || !s.Finished() {
		t.Errorf("status = %+v", s)
	}
}

func TestProcessEmptyErrorBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	_, err := c.Process(context.Background(), Params{JobID: "x"})
	if err == nil || err.Error() != "Processing failed" {
		t.Errorf("err = %v, want Processing failed", err)
	}
}

func TestStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/outputs/job_1/status.json", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("t") != "1700000000000" {
			t.Errorf("missing cache buster: %q", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `{"jobId":"job_1","steps":[]}`)
	})
	mux.HandleFunc("/outputs/job_bad/status.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{{{`)
	})
	c := newTestClient(t, mux)

	s, err := c.Status(context.Background(), "job_1")
	if err != nil || s.JobID != "job_1" {
		t.Errorf("got %+v, %v", s, err)
	}
	if _, err := c.Status(context.Background(), "job_missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
	if _, err := c.Status(context.Background(), "job_bad"); err == nil {
		t.Error("malformed status accepted")
	}
}

func TestFetchKeepsExistingQuery(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("v") != "2" || r.URL.Query().Get("t") == "" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, "png")
	}))
	data, err := c.Fetch(context.Background(), "outputs/job_1/spritesheet.png?v=2")
	if err != nil || string(data) != "png" {
		t.Errorf("got %q, %v", data, err)
	}
}

func TestURLs(t *testing.T) {
	c, err := New("https://sprites.example.com/")
	if err != nil {
		t.Fatal(err)
	}
	if got := c.StatusSocketURL("job 1"); got != "wss://sprites.example.com/ws/status?job_id=job+1" {
		t.Errorf("socket url = %q", got)
	}
	if got := c.OutputURL("/outputs/job_1/final.gif"); got != "https://sprites.example.com/outputs/job_1/final.gif" {
		t.Errorf("output url = %q", got)
	}

	c, _ = New("http://localhost:8080")
	if got := c.StatusSocketURL("job_1"); !strings.HasPrefix(got, "ws://localhost:8080/ws/status?") {
		t.Errorf("socket url = %q", got)
	}
	if got := JobPath("job_1", "status.json"); got != "/outputs/job_1/status.json" {
		t.Errorf("job path = %q", got)
	}
}
