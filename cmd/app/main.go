package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/1F47E/go-spritereel/internal/config"
	"github.com/1F47E/go-spritereel/internal/core"
	"github.com/1F47E/go-spritereel/internal/logger"
)

var app = cli.NewApp()
var log = logger.Log

var processFlags = []cli.Flag{
	cli.Float64Flag{Name: "threshold", Value: config.DefaultThreshold, Usage: "frame difference threshold, 0..1"},
	cli.Float64Flag{Name: "similarity", Value: config.DefaultSimilarity, Usage: "chroma key similarity, 0..1"},
	cli.StringFlag{Name: "tile", Value: config.DefaultTile, Usage: "spritesheet layout, COLSxROWS"},
	cli.StringFlag{Name: "chroma", Value: config.DefaultChromaColor, Usage: "chroma key color, #rrggbb"},
	cli.IntFlag{Name: "fps", Value: config.DefaultFPS, Usage: "frames per second to extract"},
	cli.IntFlag{Name: "size", Value: config.DefaultSize, Usage: "frame size in px"},
	editFlag,
}

var editFlag = cli.BoolFlag{Name: "edit", Usage: "open the editor on the spritesheet when done"}

var sheetFlags = []cli.Flag{
	cli.IntFlag{Name: "tile-width, tw", Usage: "tile width in px (default from config)"},
	cli.IntFlag{Name: "tile-height, th", Usage: "tile height in px (default from config)"},
	cli.StringFlag{Name: "policy, p", Value: "subtractive", Usage: "subtractive blanks the selected tiles, compacting keeps only them"},
	cli.StringFlag{Name: "out, o", Usage: "export path (default next to the sheet)"},
}

func init() {
	app.Name = "spritereel"
	app.Usage = "Turn short videos into spritesheets and edit them"
	app.UsageText = "spritereel [global options] command [arguments]"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Value: config.ConfigFile, Usage: "yaml config file"},
		cli.StringFlag{Name: "server, s", Usage: "service url (default from config or $" + config.EnvServer + ")"},
		cli.StringFlag{Name: "out-dir", Usage: "where job outputs are saved"},
		cli.BoolFlag{Name: "plain", Usage: "log lines instead of the interactive display"},
	}
	app.Commands = []cli.Command{
		{
			Name:      "generate",
			Aliases:   []string{"g"},
			Usage:     "Upload a video, process it and download the gif and spritesheet",
			ArgsUsage: "video.mp4",
			Flags:     processFlags,
			Action: func(c *cli.Context) error {
				filename, err := getArg(c, "Video file")
				if err != nil {
					return err
				}
				return runJob(c, func(cr *core.Core) (core.Result, error) {
					return cr.Generate(filename)
				})
			},
		},
		{
			Name:      "upload",
			Aliases:   []string{"u"},
			Usage:     "Upload a video and print the job id",
			ArgsUsage: "video.mp4",
			Action:    uploadCmd,
		},
		{
			Name:      "watch",
			Aliases:   []string{"w"},
			Usage:     "Follow a submitted job and download its outputs",
			ArgsUsage: "job_id",
			Flags:     []cli.Flag{editFlag},
			Action: func(c *cli.Context) error {
				jobID, err := getArg(c, "Job id")
				if err != nil {
					return err
				}
				return runJob(c, func(cr *core.Core) (core.Result, error) {
					return cr.Watch(jobID)
				})
			},
		},
		{
			Name:      "status",
			Aliases:   []string{"s"},
			Usage:     "Print the current status of a job",
			ArgsUsage: "job_id",
			Action:    statusCmd,
		},
		{
			Name:      "download",
			Aliases:   []string{"d"},
			Usage:     "Download the outputs a job has now",
			ArgsUsage: "job_id",
			Flags:     []cli.Flag{editFlag},
			Action: func(c *cli.Context) error {
				jobID, err := getArg(c, "Job id")
				if err != nil {
					return err
				}
				return runJob(c, func(cr *core.Core) (core.Result, error) {
					return cr.Download(jobID)
				})
			},
		},
		{
			Name:      "edit",
			Aliases:   []string{"e"},
			Usage:     "Open the tile editor on a spritesheet",
			ArgsUsage: "spritesheet.png",
			Flags: append([]cli.Flag{
				cli.BoolTFlag{Name: "watch", Usage: "reload when the file changes"},
			}, sheetFlags...),
			Action: editCmd,
		},
		{
			Name:      "export",
			Aliases:   []string{"x"},
			Usage:     "Export a spritesheet with the given tiles removed or kept",
			ArgsUsage: "spritesheet.png",
			Flags: append([]cli.Flag{
				cli.StringFlag{Name: "tiles, t", Usage: "comma separated tile indices, row-major from 0"},
				cli.BoolFlag{Name: "data-uri", Usage: "print a data uri instead of writing a file"},
			}, sheetFlags...),
			Action: exportCmd,
		},
		{
			Name:      "info",
			Aliases:   []string{"i"},
			Usage:     "Print resolution and duration of a video",
			ArgsUsage: "video.mp4",
			Action:    infoCmd,
		},
	}
}

func getArg(c *cli.Context, what string) (string, error) {
	f := c.Args().Get(0)
	if f == "" {
		return "", fmt.Errorf("%s is required", what)
	}
	return f, nil
}

func main() {
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
