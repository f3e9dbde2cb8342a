package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/shlex"
	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML configuration file schema. Every field is optional;
// pointers distinguish "unset" from zero values so the file only overrides
// what it names.
type fileConfig struct {
	JavaPath       *string `yaml:"java_path"`
	JarPath        *string `yaml:"jar_path"`
	WorkDir        *string `yaml:"work_dir"`
	JavaOpts       *string `yaml:"java_opts"`
	DPI            *int    `yaml:"dpi"`
	TimeoutSeconds *int    `yaml:"timeout_seconds"`

	UploadDir         *string `yaml:"upload_dir"`
	OutputDir         *string `yaml:"output_dir"`
	UploadMaxAgeHours *int    `yaml:"upload_max_age_hours"`
	OutputMaxAgeHours *int    `yaml:"output_max_age_hours"`
	SweepIntervalSecs *int    `yaml:"sweep_interval_seconds"`
	SweepEnabled      *bool   `yaml:"sweep_enabled"`
}

// ApplyFile overlays a YAML configuration file onto the configuration.
// Values present in the file win over environment and defaults.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.JavaPath != nil {
		c.JavaPath = *fc.JavaPath
	}
	if fc.JarPath != nil {
		c.JarPath = *fc.JarPath
		c.WorkDir = filepath.Dir(*fc.JarPath)
	}
	if fc.WorkDir != nil {
		c.WorkDir = *fc.WorkDir
	}
	if fc.JavaOpts != nil {
		parsed, err := shlex.Split(*fc.JavaOpts)
		if err != nil {
			return fmt.Errorf("failed to parse java_opts in %s: %w", path, err)
		}
		c.JavaOpts = parsed
	}
	if fc.DPI != nil {
		c.DPI = *fc.DPI
	}
	if fc.TimeoutSeconds != nil {
		c.Timeout = time.Duration(*fc.TimeoutSeconds) * time.Second
	}

	if fc.UploadDir != nil {
		c.Upload.Dir = *fc.UploadDir
	}
	if fc.OutputDir != nil {
		c.Output.Dir = *fc.OutputDir
	}
	if fc.UploadMaxAgeHours != nil {
		c.Upload.MaxAge = time.Duration(*fc.UploadMaxAgeHours) * time.Hour
	}
	if fc.OutputMaxAgeHours != nil {
		c.Output.MaxAge = time.Duration(*fc.OutputMaxAgeHours) * time.Hour
	}
	if fc.SweepIntervalSecs != nil {
		interval := time.Duration(*fc.SweepIntervalSecs) * time.Second
		c.Upload.SweepInterval = interval
		c.Output.SweepInterval = interval
	}
	if fc.SweepEnabled != nil {
		c.SweepEnabled = *fc.SweepEnabled
	}

	return nil
}
