// Package config loads the archive tool configuration from an optional
// YAML file and SLIDEARCHIVE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	DataDir       string          `mapstructure:"data_dir"`
	ActiveArchive string          `mapstructure:"active_archive"`
	Thumbnails    ThumbnailConfig `mapstructure:"thumbnails"`
	Export        ExportConfig    `mapstructure:"export"`
	Archives      []ArchiveConfig `mapstructure:"archives"`
}

// ThumbnailConfig holds thumbnail cache settings.
type ThumbnailConfig struct {
	MaxEdge int `mapstructure:"max_edge"` // longest edge of a generated thumbnail, in pixels
	Workers int `mapstructure:"workers"`  // cap on concurrent generation jobs
}

// ExportConfig holds document export settings.
type ExportConfig struct {
	PageWidth  float64 `mapstructure:"page_width"`  // points
	PageHeight float64 `mapstructure:"page_height"` // points
}

// ArchiveConfig describes one archive root. Directory fields left empty are
// derived from the archive key under the data directory.
type ArchiveConfig struct {
	Key          string `mapstructure:"key"`
	Label        string `mapstructure:"label"`
	LibraryDir   string `mapstructure:"library_dir"`
	DBFile       string `mapstructure:"db_file"`
	ThumbsDir    string `mapstructure:"thumbs_dir"`
	PurgedDir    string `mapstructure:"purged_dir"`
	PurgedDBFile string `mapstructure:"purged_db_file"`
	AdoptBundles bool   `mapstructure:"adopt_bundles"`
}

// DefaultConfig returns the configuration used when no config file exists:
// a main slide library plus an excursions archive that adopts field-bundle
// sidecar metadata.
func DefaultConfig() *Config {
	return &Config{
		DataDir:       "data",
		ActiveArchive: "slide_library",
		Thumbnails: ThumbnailConfig{
			MaxEdge: 360,
			Workers: 8,
		},
		Export: ExportConfig{
			PageWidth:  11 * 72,
			PageHeight: 8.5 * 72,
		},
		Archives: []ArchiveConfig{
			{Key: "slide_library", Label: "Slide Library"},
			{Key: "excursions", Label: "Excursions", AdoptBundles: true},
		},
	}
}

// Load reads the configuration from path, or from slidearchive.yaml in the
// working directory when path is empty. A missing file is not an error; the
// defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("slidearchive")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SLIDEARCHIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("active_archive", defaults.ActiveArchive)
	v.SetDefault("thumbnails.max_edge", defaults.Thumbnails.MaxEdge)
	v.SetDefault("thumbnails.workers", defaults.Thumbnails.Workers)
	v.SetDefault("export.page_width", defaults.Export.PageWidth)
	v.SetDefault("export.page_height", defaults.Export.PageHeight)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.Archives) == 0 {
		cfg.Archives = defaults.Archives
	}
	cfg.resolveArchives()

	if _, ok := cfg.Archive(cfg.ActiveArchive); !ok {
		return nil, fmt.Errorf("active archive %q is not configured", cfg.ActiveArchive)
	}
	return cfg, nil
}

// Archive returns the archive config for key.
func (c *Config) Archive(key string) (ArchiveConfig, bool) {
	for _, a := range c.Archives {
		if a.Key == key {
			return a, true
		}
	}
	return ArchiveConfig{}, false
}

// BundleDir returns the directory scanned for field-bundle metadata files.
func (c *Config) BundleDir() string {
	return filepath.Join(c.DataDir, "field_bundle_archive")
}

// resolveArchives fills in derived paths for archives that do not override
// them explicitly.
func (c *Config) resolveArchives() {
	for i := range c.Archives {
		a := &c.Archives[i]
		if a.Label == "" {
			a.Label = a.Key
		}
		if a.LibraryDir == "" {
			a.LibraryDir = filepath.Join(c.DataDir, a.Key+"_library")
		}
		if a.DBFile == "" {
			a.DBFile = filepath.Join(c.DataDir, a.Key+"_archive.json")
		}
		if a.ThumbsDir == "" {
			a.ThumbsDir = filepath.Join(c.DataDir, "thumbs", a.Key)
		}
		if a.PurgedDir == "" {
			a.PurgedDir = filepath.Join(c.DataDir, a.Key+"_purged")
		}
		if a.PurgedDBFile == "" {
			a.PurgedDBFile = filepath.Join(c.DataDir, a.Key+"_purged_archive.json")
		}
	}
}
