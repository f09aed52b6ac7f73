package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/1F47E/go-spritereel/internal/api"
	"github.com/1F47E/go-spritereel/internal/config"
	"github.com/1F47E/go-spritereel/internal/core"
	"github.com/1F47E/go-spritereel/internal/editorui"
	"github.com/1F47E/go-spritereel/internal/progress"
	"github.com/1F47E/go-spritereel/internal/sheet"
	"github.com/1F47E/go-spritereel/internal/status"
	"github.com/1F47E/go-spritereel/internal/tui"
	"github.com/1F47E/go-spritereel/internal/validation"
	"github.com/1F47E/go-spritereel/internal/video"
)

// loadConfig layers the config file, env and flags, in that order.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return cfg, err
	}
	if s := c.GlobalString("server"); s != "" {
		cfg.Server = s
	}
	if d := c.GlobalString("out-dir"); d != "" {
		cfg.OutputDir = d
	}
	if c.IsSet("threshold") {
		cfg.Process.Threshold = c.Float64("threshold")
	}
	if c.IsSet("similarity") {
		cfg.Process.Similarity = c.Float64("similarity")
	}
	if c.IsSet("tile") {
		cfg.Process.Tile = c.String("tile")
	}
	if c.IsSet("chroma") {
		cfg.Process.ChromaColor = c.String("chroma")
	}
	if c.IsSet("fps") {
		cfg.Process.FPS = c.Int("fps")
	}
	if c.IsSet("size") {
		cfg.Process.Size = c.Int("size")
	}
	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runJob runs op against the service while the display renders its events.
// Closing the display cancels op.
func runJob(c *cli.Context, op func(*core.Core) (core.Result, error)) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	sigCtx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	plain := c.GlobalBool("plain")
	progressOut := io.Discard
	if plain {
		progressOut = os.Stderr
	}
	client, err := api.New(cfg.Server, api.WithProgress(progressOut))
	if err != nil {
		return err
	}

	eventsCh := make(chan tui.Event)
	displayCtx, stopDisplay := context.WithCancel(ctx)
	defer stopDisplay()
	var display tui.Display = tui.New(eventsCh, displayCtx)
	if plain {
		display = tui.NewPlain(eventsCh, displayCtx)
	}

	cr := core.NewCore(ctx, eventsCh, client, cfg)
	var res core.Result
	var opErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer stopDisplay()
		res, opErr = op(cr)
	}()
	display.Run()
	cancel()
	<-done

	if opErr != nil {
		return opErr
	}
	for _, key := range []string{status.OutputGIF, status.OutputSpritesheet} {
		if p, ok := res.Outputs[key]; ok {
			log.Infof("%s: %s", key, p)
		}
	}
	if res.Took > 0 {
		log.Infof("Job %s done in %s", res.JobID, res.Took.Round(time.Millisecond))
	}

	if !c.Bool("edit") {
		return nil
	}
	sheetPath, ok := res.Outputs[status.OutputSpritesheet]
	if !ok {
		return fmt.Errorf("job %s has no spritesheet to edit", res.JobID)
	}
	return editorui.Run(sigCtx, sheetPath, editorui.Options{
		Policy:     sheet.Subtractive,
		TileWidth:  cfg.TileSize,
		TileHeight: cfg.TileSize,
		Retry:      cfg.Retry,
	})
}

func uploadCmd(c *cli.Context) error {
	filename, err := getArg(c, "Video file")
	if err != nil {
		return err
	}
	if err := validation.ValidateFile(filename); err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	client, err := api.New(cfg.Server, api.WithProgress(os.Stderr))
	if err != nil {
		return err
	}
	res, err := client.Upload(ctx, filename)
	if err != nil {
		return err
	}
	log.Infof("Job id: %s", res.JobID)
	if res.Preview != "" {
		log.Infof("Preview: %s", client.OutputURL(res.Preview))
	}
	return nil
}

func statusCmd(c *cli.Context) error {
	jobID, err := getArg(c, "Job id")
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	client, err := api.New(cfg.Server)
	if err != nil {
		return err
	}
	s, err := client.Status(ctx, jobID)
	if err != nil {
		return err
	}
	p := s.Progress()
	log.Infof("%s: %s (%d%%)", s.JobID, p.Text, p.Percent)
	for _, step := range s.Steps {
		log.Infof("  %-16s %s", status.FormatStepName(step.Name), step.Status)
	}
	for _, key := range []string{status.OutputGIF, status.OutputSpritesheet} {
		if path, ok := s.Output(key); ok {
			log.Infof("%s: %s", key, client.OutputURL(path))
		}
	}
	return nil
}

type sheetOptions struct {
	policy     sheet.Policy
	tileWidth  int
	tileHeight int
	out        string
}

func getSheetOptions(c *cli.Context, cfg config.Config) (sheetOptions, error) {
	policy, err := sheet.ParsePolicy(c.String("policy"))
	if err != nil {
		return sheetOptions{}, err
	}
	o := sheetOptions{
		policy:     policy,
		tileWidth:  c.Int("tile-width"),
		tileHeight: c.Int("tile-height"),
		out:        c.String("out"),
	}
	if o.tileWidth <= 0 {
		o.tileWidth = cfg.TileSize
	}
	if o.tileHeight <= 0 {
		o.tileHeight = cfg.TileSize
	}
	return o, nil
}

func editCmd(c *cli.Context) error {
	filename, err := getArg(c, "Spritesheet")
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	o, err := getSheetOptions(c, cfg)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	return editorui.Run(ctx, filename, editorui.Options{
		Policy:     o.policy,
		TileWidth:  o.tileWidth,
		TileHeight: o.tileHeight,
		Out:        o.out,
		Watch:      c.BoolT("watch"),
		Retry:      cfg.Retry,
	})
}

func exportCmd(c *cli.Context) error {
	filename, err := getArg(c, "Spritesheet")
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	o, err := getSheetOptions(c, cfg)
	if err != nil {
		return err
	}
	img, err := sheet.Open(filename)
	if err != nil {
		return fmt.Errorf("open %s: %w", filename, err)
	}
	e := sheet.NewEditor(o.policy, o.tileWidth, o.tileHeight)
	e.Load(img)
	tiles, err := parseTiles(c.String("tiles"), e.Grid().Count())
	if err != nil {
		return err
	}
	if err := e.SelectTiles(tiles); err != nil {
		return err
	}

	if c.Bool("data-uri") {
		uri, err := e.ExportDataURI()
		if err != nil {
			return err
		}
		fmt.Println(uri)
		return nil
	}
	_, m, err := core.SaveEdit(e, filename, o.out)
	if err != nil {
		return err
	}
	log.Info(m.Print())
	return nil
}

func infoCmd(c *cli.Context) error {
	filename, err := getArg(c, "Video file")
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	bar := progress.Spinner("Probing...", os.Stderr)
	probed := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-probed:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()
	info, err := video.Probe(ctx, filename)
	close(probed)
	_ = bar.Clear()
	if err != nil {
		return err
	}
	log.Infof("%s: %s", filename, info)
	if err := validation.ValidateFile(filename); err != nil {
		log.Warnf("the service will reject this file: %v", err)
	}
	return nil
}

// parseTiles reads "0,7" or "0-3,7" into tile indices of a grid with
// count tiles. Indices past the grid are rejected before a range expands.
func parseTiles(s string, count int) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("no tiles given, use --tiles 0,7")
	}
	var tiles []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		from, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("bad tile %q", part)
		}
		to := from
		if isRange {
			if to, err = strconv.Atoi(hi); err != nil || to < from {
				return nil, fmt.Errorf("bad tile range %q", part)
			}
		}
		if to >= count {
			return nil, fmt.Errorf("tile %d out of range 0..%d", to, count-1)
		}
		for i := from; i <= to; i++ {
			tiles = append(tiles, i)
		}
	}
	return tiles, nil
}
