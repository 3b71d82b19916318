package prefs

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds front-end settings shared by the CLI, the terminal host and
// the web service.
type Config struct {
	// Paths
	Scene     string `yaml:"scene"`      // Scene file or built-in id
	ItemDir   string `yaml:"item_dir"`   // Directory of item descriptors
	SceneDir  string `yaml:"scene_dir"`  // Directory listed by scene discovery
	PrefsFile string `yaml:"prefs_file"` // Persisted brush settings
	Output    string `yaml:"output"`     // Preview image (.png or .webp)

	// Preview settings
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Supersample int     `yaml:"supersample"`
	Extent      float64 `yaml:"extent"` // World width shown by the preview
	Workers     int     `yaml:"workers"`

	Seed  int64 `yaml:"seed"`
	Debug bool  `yaml:"debug"`
}

// Flags are command line overrides; zero values leave the config untouched
type Flags struct {
	Scene     string
	ItemDir   string
	PrefsFile string
	Output    string
	Width     int
	Height    int
	Extent    float64
	Workers   int
	Seed      int64
	Debug     bool
}

// Load reads a YAML config file. Fields not set in the file keep their zero
// values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve applies flag overrides and fills empty fields with defaults
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.Scene != "" {
		c.Scene = flags.Scene
	}
	if flags.ItemDir != "" {
		c.ItemDir = flags.ItemDir
	}
	if flags.PrefsFile != "" {
		c.PrefsFile = flags.PrefsFile
	}
	if flags.Output != "" {
		c.Output = flags.Output
	}
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.Extent > 0 {
		c.Extent = flags.Extent
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Seed != 0 {
		c.Seed = flags.Seed
	}
	c.Debug = c.Debug || flags.Debug

	if c.Scene == "" {
		c.Scene = "flat"
	}
	if c.SceneDir == "" {
		c.SceneDir = "scenes"
	}
	if c.PrefsFile == "" {
		c.PrefsFile = DefaultPrefsFile()
	}
	if c.Width <= 0 {
		c.Width = 512
	}
	if c.Height <= 0 {
		c.Height = c.Width
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Extent <= 0 {
		c.Extent = 20
	}
}

// DefaultPrefsFile returns the per-user settings path, or a file in the
// working directory when no config directory is known
func DefaultPrefsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "scatter-placer.yaml"
	}
	return filepath.Join(dir, "scatter-placer", "prefs.yaml")
}
