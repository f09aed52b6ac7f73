package validation

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// minimal ftyp box, enough for content sniffing
var mp4Header = []byte{
	0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
	'm', 'p', '4', '2', 0x00, 0x00, 0x00, 0x00,
	'm', 'p', '4', '1', 'i', 's', 'o', 'm',
}

func TestValidateMP4(t *testing.T) {
	testCases := []struct {
		name     string
		filename string
		data     []byte
		want     error
	}{
		{"valid", "clip.mp4", mp4Header, nil},
		{"upper ext", "CLIP.MP4", mp4Header, nil},
		{"wrong ext", "clip.mov", mp4Header, ErrNotMP4},
		{"not a video", "clip.mp4", []byte("hello world, plain text"), ErrInvalidMime},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := bytes.NewReader(tc.data)
			err := ValidateMP4(r, tc.filename)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if err == nil {
				// reader is rewound for the upload
				pos, _ := r.Seek(0, io.SeekCurrent)
				if pos != 0 {
					t.Errorf("reader left at %d", pos)
				}
			}
		})
	}
}

func TestValidateEmptyFile(t *testing.T) {
	if err := ValidateMP4(bytes.NewReader(nil), "clip.mp4"); err == nil {
		t.Error("empty file accepted")
	}
}
