package video

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/1F47E/go-spritereel/internal/logger"
)

// Info is what the upload form shows about a picked video.
type Info struct {
	Width    int
	Height   int
	Duration float64 // seconds
}

func (i Info) String() string {
	return fmt.Sprintf("Resolution: %dx%d | Duration: %.2fs", i.Width, i.Height, i.Duration)
}

// call ffprobe to read the first video stream size and the container duration
func Probe(ctx context.Context, filename string) (Info, error) {
	cmdStr := "ffprobe -v error -select_streams v:0 -show_entries stream=width,height:format=duration -of json"
	cmdList := append(strings.Split(cmdStr, " "), filename)
	logger.Log.Debugf("Running ffprobe command: %s %s\n", cmdStr, filename)
	out, err := exec.CommandContext(ctx, cmdList[0], cmdList[1:]...).Output()
	if err != nil {
		return Info{}, fmt.Errorf("ffprobe %s: %w", filename, err)
	}
	return parseProbe(out)
}

type probeOutput struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func parseProbe(data []byte) (Info, error) {
	var p probeOutput
	if err := json.Unmarshal(data, &p); err != nil {
		return Info{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(p.Streams) == 0 {
		return Info{}, fmt.Errorf("no video stream")
	}
	info := Info{Width: p.Streams[0].Width, Height: p.Streams[0].Height}
	if p.Format.Duration != "" {
		d, err := strconv.ParseFloat(p.Format.Duration, 64)
		if err != nil {
			return Info{}, fmt.Errorf("bad duration %q: %w", p.Format.Duration, err)
		}
		info.Duration = d
	}
	return info, nil
}
