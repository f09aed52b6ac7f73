package status

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// step states reported by the service
const (
	StatePending    = "pending"
	StateRunning    = "running"
	StateProcessing = "processing"
	StateDone       = "done"
	StateCompleted  = "completed"
	StateError      = "error"
)

// output keys
const (
	OutputGIF         = "gif"
	OutputSpritesheet = "spritesheet"
)

type Step struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

func (s Step) Done() bool {
	return s.Status == StateDone || s.Status == StateCompleted
}

func (s Step) Running() bool {
	return s.Status == StateRunning || s.Status == StateProcessing
}

func (s Step) Failed() bool {
	return s.Status == StateError
}

// Status is the job status document, as written by the service to
// status.json and pushed over the status socket.
type Status struct {
	JobID       string            `json:"jobId"`
	CurrentStep string            `json:"currentStep"`
	Steps       []Step            `json:"steps"`
	Outputs     map[string]string `json:"outputs"`
}

// Parse decodes a status payload. Anything that is not a JSON object is
// rejected so a broken message never replaces a good status.
func Parse(data []byte) (Status, error) {
	var s Status
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return Status{}, fmt.Errorf("malformed status payload: not a json object")
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return Status{}, fmt.Errorf("malformed status payload: %w", err)
	}
	return s, nil
}

func (s Status) Output(key string) (string, bool) {
	v, ok := s.Outputs[key]
	return v, ok && v != ""
}

// Progress is the condensed view of a status for display.
type Progress struct {
	Percent   int
	Running   string // formatted name of the running step, if any
	Completed bool
	Failed    string // formatted name of the failed step, if any
	Text      string
}

func (s Status) Progress() Progress {
	var p Progress
	if len(s.Steps) == 0 {
		return p
	}

	done := 0
	for _, step := range s.Steps {
		switch {
		case step.Done():
			done++
		case step.Running() && p.Running == "":
			p.Running = FormatStepName(step.Name)
		case step.Failed() && p.Failed == "":
			p.Failed = FormatStepName(step.Name)
		}
	}

	p.Percent = int(math.Round(float64(done) / float64(len(s.Steps)) * 100))
	p.Completed = done == len(s.Steps)

	switch {
	case p.Failed != "":
		p.Text = "Failed: " + p.Failed
	case p.Running != "":
		p.Text = "Processing: " + p.Running
	case p.Completed:
		p.Text = "All steps completed 🎉"
	default:
		p.Text = "Starting..."
	}
	return p
}

// Finished reports whether nothing more will change for this job.
func (s Status) Finished() bool {
	p := s.Progress()
	return p.Completed || p.Failed != ""
}

// FormatStepName turns extract_frames into Extract Frames.
func FormatStepName(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
