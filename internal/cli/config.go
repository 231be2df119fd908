package cli

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the optional YAML file passed via --config. Flags given on the
// command line win over values from the file.
type Config struct {
	DB      string        `yaml:"db"`
	Verbose bool          `yaml:"verbose"`
	Timeout time.Duration `yaml:"timeout"`
	Format  string        `yaml:"format"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.Format != "" && !isValidFormat(cfg.Format) {
		return nil, fmt.Errorf("%s: invalid format %q: must be one of %v", path, cfg.Format, ValidFormats)
	}
	return &cfg, nil
}
