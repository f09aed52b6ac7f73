package validation

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNotMP4      = errors.New("only mp4 videos are allowed")
	ErrInvalidMime = errors.New("invalid video mime type")
)

const sniffLen = 512

// ValidateMP4 runs the same checks the service does on upload, so a bad
// file is refused before any bytes are sent.
func ValidateMP4(r io.ReadSeeker, filename string) error {
	if !strings.EqualFold(filepath.Ext(filename), ".mp4") {
		return ErrNotMP4
	}

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("read %s: %w", filename, err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return err
	}

	if mime := http.DetectContentType(buf[:n]); mime != "video/mp4" {
		return fmt.Errorf("%w: %s", ErrInvalidMime, mime)
	}
	return nil
}

func ValidateFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ValidateMP4(f, path)
}
