package meta

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1F47E/go-spritereel/internal/logger"
)

// Metadata describes one exported sheet. It is written as a yaml file
// next to the png so an edit can be traced back to its source.
type Metadata struct {
	Source     string `yaml:"source"`
	Output     string `yaml:"output"`
	Policy     string `yaml:"policy"`
	TileWidth  int    `yaml:"tile_width"`
	TileHeight int    `yaml:"tile_height"`
	Cols       int    `yaml:"cols"`
	Rows       int    `yaml:"rows"`
	Tiles      []int  `yaml:"tiles"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Timestamp  int64  `yaml:"timestamp"`
	Checksum   string `yaml:"checksum"`
}

func New(source, output string) Metadata {
	return Metadata{
		Source:    filepath.Base(source),
		Output:    filepath.Base(output),
		Timestamp: time.Now().Unix(),
	}
}

// Path is the manifest file for an exported png.
func Path(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".yaml"
}

// Seal stores the checksum of the encoded png.
func (m *Metadata) Seal(data []byte) error {
	sum, err := generateChecksum(data)
	if err != nil {
		return err
	}
	m.Checksum = fmt.Sprintf("%016x", sum)
	return nil
}

// Validate checks data against the stored checksum.
func (m *Metadata) Validate(data []byte) (bool, error) {
	sum, err := generateChecksum(data)
	if err != nil {
		return false, err
	}
	return fmt.Sprintf("%016x", sum) == m.Checksum, nil
}

func (m *Metadata) IsOk() bool {
	return m.Output != "" && m.Timestamp > 0 && m.Checksum != ""
}

func (m *Metadata) Print() string {
	return fmt.Sprintf("Output: %s, Source: %s, Policy: %s, Tiles: %d, Timestamp: %d (%s)",
		m.Output, m.Source, m.Policy, len(m.Tiles), m.Timestamp, m.FormatDatetime())
}

func (m *Metadata) FormatDatetime() string {
	t := time.Unix(m.Timestamp, 0)
	localTime := t.Local()
	return localTime.Format(time.RFC822)
}

func Save(m Metadata, path string) error {
	log := logger.Log.WithField("scope", "meta")
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	log.Debugf("metadata saved: %s", m.Print())
	return nil
}

func Load(path string) (Metadata, error) {
	var m Metadata
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	return m, nil
}

func generateChecksum(data []byte) (uint64, error) {
	hasher := fnv.New64a()
	_, err := hasher.Write(data)
	if err != nil {
		return 0, fmt.Errorf("META:Error writing to hasher")
	}
	return hasher.Sum64(), nil
}
