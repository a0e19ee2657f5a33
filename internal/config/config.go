package config

import (
	"fmt"
	"os"

	"github.com/lehigh-university-libraries/srcsetter/internal/media"
	"github.com/lehigh-university-libraries/srcsetter/internal/resize"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "srcsetter.yaml"

// Config represents the application configuration
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Images   ImagesConfig   `yaml:"images"`
	Metadata MetadataConfig `yaml:"metadata"`
	Server   ServerConfig   `yaml:"server"`
	Describe DescribeConfig `yaml:"describe"`
	Batch    BatchConfig    `yaml:"batch"`
}

type SiteConfig struct {
	Root       string `yaml:"root"`
	BaseURL    string `yaml:"base_url"`
	ThemesPath string `yaml:"themes_path"`
	Theme      string `yaml:"theme"`
}

type ImagesConfig struct {
	CacheDir string `yaml:"cache_dir"`
	Format   string `yaml:"format"`
	Quality  int    `yaml:"quality"`
	Parallel int    `yaml:"parallel"`
}

type MetadataConfig struct {
	// Driver is one of memory, sqlite or sidecar.
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DescribeConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Prompt      string  `yaml:"prompt"`
	Temperature float64 `yaml:"temperature"`
}

type BatchConfig struct {
	ReportDir string `yaml:"report_dir"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			Root:       ".",
			BaseURL:    "http://localhost:8888",
			ThemesPath: media.DefaultThemesPath,
			Theme:      "default",
		},
		Images: ImagesConfig{
			CacheDir: resize.DefaultCacheDir,
			Quality:  resize.DefaultQuality,
			Parallel: 4,
		},
		Metadata: MetadataConfig{
			Driver: "sqlite",
			Path:   "storage/metadata.db",
		},
		Server: ServerConfig{
			Port: "8888",
		},
		Describe: DescribeConfig{
			Provider:    "ollama",
			Temperature: 0.1,
		},
		Batch: BatchConfig{
			ReportDir: "reports",
		},
	}
}

// Load reads and parses the configuration file. Fields missing from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration fields are set
func (c *Config) Validate() error {
	if c.Site.Root == "" {
		return fmt.Errorf("site.root is required")
	}
	if c.Site.Theme == "" {
		return fmt.Errorf("site.theme is required")
	}
	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		return fmt.Errorf("images.quality must be between 1 and 100, got %d", c.Images.Quality)
	}
	switch c.Images.Format {
	case "", "jpg", "jpeg", "png", "gif":
	default:
		return fmt.Errorf("images.format %q is not supported", c.Images.Format)
	}
	switch c.Metadata.Driver {
	case "memory", "sidecar":
	case "sqlite":
		if c.Metadata.Path == "" {
			return fmt.Errorf("metadata.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("metadata.driver %q is not supported", c.Metadata.Driver)
	}
	switch c.Describe.Provider {
	case "", "ollama", "gemini":
	default:
		return fmt.Errorf("describe.provider %q is not supported", c.Describe.Provider)
	}
	return nil
}

// MediaSite returns the media site described by the configuration.
func (c *Config) MediaSite() *media.Site {
	return &media.Site{
		Root:       c.Site.Root,
		BaseURL:    c.Site.BaseURL,
		ThemesPath: c.Site.ThemesPath,
		Theme:      c.Site.Theme,
	}
}

// MetadataDSN returns the argument for metadata.Open.
func (c *Config) MetadataDSN() string {
	if c.Metadata.Driver == "sidecar" {
		return c.Site.Root
	}
	return c.Metadata.Path
}
