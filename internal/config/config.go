package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// editor grid
	DefaultTileSize = 64
	MinDragDistance = 3 // px, below this a press+release is a click

	// service endpoints
	DefaultServer   = "http://localhost:8080"
	PathUpload      = "/api/upload"
	PathProcess     = "/api/process"
	PathStatusWS    = "/ws/status"
	PathOutputs     = "/outputs/"
	StatusFile      = "status.json"
	UploadFieldName = "video"

	// timings
	PollInterval   = 2 * time.Second
	RetryDelay     = 2 * time.Second
	MaxFetchTries  = 5
	RequestTimeout = 30 * time.Second

	// process defaults, same as the web form
	DefaultThreshold   = 0.1
	DefaultSimilarity  = 0.3
	DefaultTile        = "8x8"
	DefaultChromaColor = "#00ff00"
	DefaultFPS         = 12
	DefaultSize        = 128

	// local paths
	PathOutputsDir = "outputs"
	ConfigFile     = "spritereel.yaml"

	EnvServer = "SPRITEREEL_SERVER"
)

// Config holds the client settings. Zero values are filled from the const defaults.
type Config struct {
	Server    string        `yaml:"server"`
	OutputDir string        `yaml:"output_dir"`
	Poll      time.Duration `yaml:"poll_interval"`
	Retry     time.Duration `yaml:"retry_delay"`
	TileSize  int           `yaml:"tile_size"`
	Process   Process       `yaml:"process"`
}

// Process mirrors the fields of the processing request.
type Process struct {
	Threshold   float64 `yaml:"threshold"`
	Similarity  float64 `yaml:"similarity"`
	Tile        string  `yaml:"tile"`
	ChromaColor string  `yaml:"chroma_color"`
	FPS         int     `yaml:"fps"`
	Size        int     `yaml:"size"`
}

// String is the one line summary shown when a job is submitted.
// The chroma color is upper-cased for display only.
func (p Process) String() string {
	return fmt.Sprintf("tile %s, %d fps, %dpx, chroma %s, threshold %.2f, similarity %.2f",
		p.Tile, p.FPS, p.Size, strings.ToUpper(p.ChromaColor), p.Threshold, p.Similarity)
}

func Default() Config {
	return Config{
		Server:    DefaultServer,
		OutputDir: PathOutputsDir,
		Poll:      PollInterval,
		Retry:     RetryDelay,
		TileSize:  DefaultTileSize,
		Process: Process{
			Threshold:   DefaultThreshold,
			Similarity:  DefaultSimilarity,
			Tile:        DefaultTile,
			ChromaColor: DefaultChromaColor,
			FPS:         DefaultFPS,
			Size:        DefaultSize,
		},
	}
}

// Load reads the yaml file at path over the defaults.
// A missing file is not an error, the defaults are used.
// The server env var wins over the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if s := os.Getenv(EnvServer); s != "" {
		cfg.Server = s
	}
	cfg.fill()
	return cfg, cfg.Validate()
}

// fill puts defaults back into fields the file left empty
func (c *Config) fill() {
	d := Default()
	if c.Server == "" {
		c.Server = d.Server
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.Poll <= 0 {
		c.Poll = d.Poll
	}
	if c.Retry <= 0 {
		c.Retry = d.Retry
	}
	if c.TileSize <= 0 {
		c.TileSize = d.TileSize
	}
	if c.Process.Tile == "" {
		c.Process.Tile = d.Process.Tile
	}
	if c.Process.ChromaColor == "" {
		c.Process.ChromaColor = d.Process.ChromaColor
	}
	if c.Process.FPS <= 0 {
		c.Process.FPS = d.Process.FPS
	}
	if c.Process.Size <= 0 {
		c.Process.Size = d.Process.Size
	}
}

func (c Config) Validate() error {
	if c.Process.Threshold < 0 || c.Process.Threshold > 1 {
		return fmt.Errorf("threshold must be within [0,1], got %v", c.Process.Threshold)
	}
	if c.Process.Similarity < 0 || c.Process.Similarity > 1 {
		return fmt.Errorf("similarity must be within [0,1], got %v", c.Process.Similarity)
	}
	if !validColor(c.Process.ChromaColor) {
		return fmt.Errorf("chroma color must be #rrggbb, got %q", c.Process.ChromaColor)
	}
	var cols, rows int
	if n, err := fmt.Sscanf(c.Process.Tile, "%dx%d", &cols, &rows); err != nil || n != 2 || cols <= 0 || rows <= 0 {
		return fmt.Errorf("tile layout must be COLSxROWS, got %q", c.Process.Tile)
	}
	return nil
}

func validColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
