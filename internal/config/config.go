// Package config handles uvatlas configuration loading and management.
package config

import "github.com/Faultbox/uvatlas/internal/atlas"

// Config holds all tool settings. Command-line options override it.
type Config struct {
	Chart    atlas.ChartOptions `yaml:"chart"`
	Pack     atlas.PackOptions  `yaml:"pack"`
	Pipeline PipelineConfig     `yaml:"pipeline"`
	Preview  PreviewConfig      `yaml:"preview"`
	Logging  LoggingConfig      `yaml:"logging"`
	Workers  int                `yaml:"workers"` // 0 means GOMAXPROCS
}

// PipelineConfig holds conversion settings.
type PipelineConfig struct {
	PackOnly     bool   `yaml:"pack_only"`
	AtlasLayout  string `yaml:"atlas_layout"`  // overlap, spreadX or udim
	Sentinel     string `yaml:"sentinel"`      // line written before the OBJ payload
	NameEncoding string `yaml:"name_encoding"` // charset of non-UTF-8 object names
}

// PreviewConfig holds atlas preview image settings.
type PreviewConfig struct {
	Path    string `yaml:"path"` // empty disables previews
	MaxSize int    `yaml:"max_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Chart: atlas.DefaultChartOptions(),
		Pack:  atlas.DefaultPackOptions(),
		Pipeline: PipelineConfig{
			PackOnly:     false,
			AtlasLayout:  "overlap",
			Sentinel:     "STARTOBJ",
			NameEncoding: "windows-1252",
		},
		Preview: PreviewConfig{
			Path:    "",
			MaxSize: 2048,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Workers: 0,
	}
}
