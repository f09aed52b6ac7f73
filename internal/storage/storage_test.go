package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCreateJobDir(t *testing.T) {
	root := t.TempDir()
	dir, err := CreateJobDir(root, "job_1")
	if err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("dir not created: %v", err)
	}
	for _, bad := range []string{"", "..", "a/b", `a\b`} {
		if _, err := CreateJobDir(root, bad); err == nil {
			t.Errorf("CreateJobDir(%q) should fail", bad)
		}
	}
}

func TestOutputDest(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"/outputs/job_1/final.gif", "final.gif"},
		{"/outputs/job_1/spritesheet.png?t=123", "spritesheet.png"},
		{"spritesheet.png", "spritesheet.png"},
		{"/", "output"},
	}
	for _, tc := range testCases {
		if got := OutputDest("out", tc.in); got != filepath.Join("out", tc.want) {
			t.Errorf("OutputDest(%q) = %q", tc.in, got)
		}
	}
}

func TestEditedPath(t *testing.T) {
	if got := EditedPath("out/sheet.png", "compacting"); got != "out/sheet.compacting.png" {
		t.Errorf("got %q", got)
	}
}

func TestSaveFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "nested", "final.gif")
	if err := SaveFile(dest, []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := SaveFile(dest, []byte("two")); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "two" {
		t.Errorf("got %q, %v", data, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(dest))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}
