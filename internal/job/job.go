package job

import (
	"fmt"
)

// job for the fetch worker: one output of a processing job
type JobFetch struct {
	Key     string // output name, gif or spritesheet
	Path    string // output path on the service
	Dest    string // local file
	Attempt int
}

// res from the fetch worker
type JobFetchRes struct {
	Key      string
	Dest     string
	Attempts int
	Err      error
}

func New(key, path, dest string) JobFetch {
	return JobFetch{
		Key:  key,
		Path: path,
		Dest: dest,
	}
}

func (j *JobFetch) Print() string {
	return fmt.Sprintf("Job: %s, Path: %s, Dest: %s, Attempt: %d", j.Key, j.Path, j.Dest, j.Attempt)
}
