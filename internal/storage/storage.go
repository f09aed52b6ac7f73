// All files related functions
package storage

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// CreateJobDir makes the local folder for one job's outputs.
func CreateJobDir(root, jobID string) (string, error) {
	if jobID == "" || strings.ContainsAny(jobID, `/\`) || jobID == "." || jobID == ".." {
		return "", fmt.Errorf("bad job id %q", jobID)
	}
	dir := filepath.Join(root, jobID)
	err := os.MkdirAll(dir, os.ModePerm)
	if err != nil {
		return dir, fmt.Errorf("Error creating job dir: %w", err)
	}
	return dir, nil
}

// OutputDest is the local file for a service output path,
// /outputs/job_1/final.gif lands in dir/final.gif.
func OutputDest(dir, outputPath string) string {
	p := outputPath
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	name := path.Base(p)
	if name == "." || name == "/" {
		name = "output"
	}
	return filepath.Join(dir, name)
}

// EditedPath names the export of an edited sheet next to the source,
// sheet.png becomes sheet.<suffix>.png.
func EditedPath(src, suffix string) string {
	ext := filepath.Ext(src)
	return strings.TrimSuffix(src, ext) + "." + suffix + ".png"
}

// SaveFile writes data to a temp file in the target dir and renames it in
// place, so readers never see a partial file.
func SaveFile(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("Cannot create dir for %s: %w", dest, err)
	}
	tmpFile, err := os.CreateTemp(dir, ".download-")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpFile.Name(), dest)
}
