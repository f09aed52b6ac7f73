package progress

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Bytes is a byte counting bar, used for uploads and downloads.
// The bar is an io.Writer so it can sit behind an io.TeeReader.
func Bytes(max int64, desc string, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions64(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowBytes(true),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
		progressbar.OptionSetTheme(theme()))
}

// Spinner is a bar of unknown length.
func Spinner(desc string, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetTheme(theme()))
}

func theme() progressbar.Theme {
	return progressbar.Theme{
		Saucer:        "[green]/[reset]",
		SaucerHead:    "[green]/[reset]",
		SaucerPadding: " ",
		BarStart:      "[",
		BarEnd:        "]",
	}
}
