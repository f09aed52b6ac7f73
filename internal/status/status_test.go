package status

import (
	"testing"
)

func TestParse(t *testing.T) {
	data := []byte(`{"jobId":"job_1","currentStep":"gif","steps":[{"name":"extract_frames","status":"done"},{"name":"gif","status":"running"}],"outputs":{"gif":"/outputs/job_1/final.gif"}}`)
	s, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.JobID != "job_1" || len(s.Steps) != 2 || s.CurrentStep != "gif" {
		t.Errorf("bad status: %+v", s)
	}
	if v, ok := s.Output(OutputGIF); !ok || v != "/outputs/job_1/final.gif" {
		t.Errorf("gif output = %q, %v", v, ok)
	}
	if _, ok := s.Output(OutputSpritesheet); ok {
		t.Error("spritesheet output should be missing")
	}

	for _, bad := range []string{"", "not json", `["a"]`, `{"steps": 5}`, "null", " null ", `"x"`, "12"} {
		if _, err := Parse([]byte(bad)); err == nil {
			t.Errorf("Parse(%q) should fail", bad)
		}
	}

	// an object without steps parses, it just carries no progress
	s, err = Parse([]byte(` {"steps":null} `))
	if err != nil || len(s.Steps) != 0 {
		t.Errorf("Parse(steps null) = %+v, %v", s, err)
	}
}

func TestProgress(t *testing.T) {
	steps := func(states ...string) Status {
		names := []string{"extract_frames", "chroma", "gif", "spritesheet"}
		s := Status{}
		for i, st := range states {
			s.Steps = append(s.Steps, Step{Name: names[i], Status: st})
		}
		return s
	}

	testCases := []struct {
		name     string
		status   Status
		want     Progress
		finished bool
	}{
		{
			name:   "no steps",
			status: Status{},
			want:   Progress{},
		},
		{
			name:   "pending",
			status: steps("pending", "pending", "pending", "pending"),
			want:   Progress{Percent: 0, Text: "Starting..."},
		},
		{
			name:   "running",
			status: steps("done", "running", "pending", "pending"),
			want:   Progress{Percent: 25, Running: "Chroma", Text: "Processing: Chroma"},
		},
		{
			name:   "processing alias",
			status: steps("completed", "done", "processing", "pending"),
			want:   Progress{Percent: 50, Running: "Gif", Text: "Processing: Gif"},
		},
		{
			name:     "complete",
			status:   steps("done", "done", "done", "completed"),
			want:     Progress{Percent: 100, Completed: true, Text: "All steps completed 🎉"},
			finished: true,
		},
		{
			name:     "failed",
			status:   steps("done", "error", "pending", "pending"),
			want:     Progress{Percent: 25, Failed: "Chroma", Text: "Failed: Chroma"},
			finished: true,
		},
		{
			name:   "rounding",
			status: steps("done", "done", "pending"),
			want:   Progress{Percent: 67, Text: "Starting..."},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.status.Progress()
			if got != tc.want {
				t.Errorf("Progress() = %+v, want %+v", got, tc.want)
			}
			if tc.status.Finished() != tc.finished {
				t.Errorf("Finished() = %v, want %v", tc.status.Finished(), tc.finished)
			}
		})
	}
}

func TestFormatStepName(t *testing.T) {
	testCases := map[string]string{
		"extract_frames": "Extract Frames",
		"gif":            "Gif",
		"":               "",
		"a__b":           "A  B",
	}
	for in, want := range testCases {
		if got := FormatStepName(in); got != want {
			t.Errorf("FormatStepName(%q) = %q, want %q", in, got, want)
		}
	}
}
