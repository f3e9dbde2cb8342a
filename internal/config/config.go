// Package config holds the process-wide configuration for figserve. It is
// constructed once at startup and passed into each component constructor;
// components never read ambient environment state themselves, which keeps
// them testable with fixture values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/shlex"
)

const (
	DefaultDPI            = 300
	DefaultTimeout        = 300 * time.Second
	DefaultSweepInterval  = time.Hour
	DefaultUploadMaxAge   = 24 * time.Hour
	DefaultOutputMaxAge   = 48 * time.Hour // results outlive uploads; they are the user-visible product
	DefaultUploadDir      = "uploads"
	DefaultOutputDir      = "output"
	defaultJavaOpts       = "-Xmx2g"
	defaultJarPathSegment = "pdffigures2.jar"
)

// Retention describes one swept root directory: where it is, how old a file
// must be before a sweep pass may delete it, and how often passes run.
type Retention struct {
	Dir           string
	MaxAge        time.Duration
	SweepInterval time.Duration
}

// Config is the full figserve configuration.
type Config struct {
	// External tool invocation
	JavaPath string   // java executable
	JarPath  string   // pdffigures2 assembly jar
	WorkDir  string   // working directory for the JVM, normally the jar's directory
	JavaOpts []string // JVM options, shlex-split from JAVA_OPTS
	DPI      int      // render DPI for figure artifacts
	Timeout  time.Duration

	// Working directories
	Upload Retention
	Output Retention

	SweepEnabled bool
}

// Default returns the built-in configuration.
func Default() *Config {
	jarPath := filepath.Join("pdffigures2", defaultJarPathSegment)
	return &Config{
		JavaPath:     "java",
		JarPath:      jarPath,
		WorkDir:      filepath.Dir(jarPath),
		JavaOpts:     []string{defaultJavaOpts},
		DPI:          DefaultDPI,
		Timeout:      DefaultTimeout,
		Upload:       Retention{Dir: DefaultUploadDir, MaxAge: DefaultUploadMaxAge, SweepInterval: DefaultSweepInterval},
		Output:       Retention{Dir: DefaultOutputDir, MaxAge: DefaultOutputMaxAge, SweepInterval: DefaultSweepInterval},
		SweepEnabled: true,
	}
}

// Load builds the configuration from environment variables on top of the
// defaults. Unset or unparsable values fall back silently, matching the
// original deployment behaviour.
func Load() (*Config, error) {
	cfg := Default()

	if jar := os.Getenv("PDFFIGURES2_JAR"); jar != "" {
		cfg.JarPath = jar
		cfg.WorkDir = filepath.Dir(jar)
	}
	if cwd := os.Getenv("PDFFIGURES2_CWD"); cwd != "" {
		cfg.WorkDir = cwd
	}
	if java := os.Getenv("JAVA_PATH"); java != "" {
		cfg.JavaPath = java
	}
	if opts := os.Getenv("JAVA_OPTS"); opts != "" {
		parsed, err := shlex.Split(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse JAVA_OPTS: %w", err)
		}
		cfg.JavaOpts = parsed
	}
	if dpi := os.Getenv("PDFFIGURES2_DPI"); dpi != "" {
		if v, err := strconv.Atoi(dpi); err == nil && v > 0 {
			cfg.DPI = v
		}
	}
	if timeout := os.Getenv("PDFFIGURES2_TIMEOUT_SECONDS"); timeout != "" {
		if v, err := strconv.Atoi(timeout); err == nil && v > 0 {
			cfg.Timeout = time.Duration(v) * time.Second
		}
	}

	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		cfg.Upload.Dir = dir
	}
	if dir := os.Getenv("OUTPUT_DIR"); dir != "" {
		cfg.Output.Dir = dir
	}
	if hours := os.Getenv("UPLOAD_MAX_AGE_HOURS"); hours != "" {
		if v, err := strconv.Atoi(hours); err == nil && v > 0 {
			cfg.Upload.MaxAge = time.Duration(v) * time.Hour
		}
	}
	if hours := os.Getenv("OUTPUT_MAX_AGE_HOURS"); hours != "" {
		if v, err := strconv.Atoi(hours); err == nil && v > 0 {
			cfg.Output.MaxAge = time.Duration(v) * time.Hour
		}
	}
	if interval := os.Getenv("CLEANUP_INTERVAL_SECONDS"); interval != "" {
		if v, err := strconv.Atoi(interval); err == nil && v > 0 {
			cfg.Upload.SweepInterval = time.Duration(v) * time.Second
			cfg.Output.SweepInterval = time.Duration(v) * time.Second
		}
	}
	if enabled := os.Getenv("ENABLE_CLEANUP"); enabled != "" {
		if v, err := strconv.ParseBool(enabled); err == nil {
			cfg.SweepEnabled = v
		}
	}

	return cfg, nil
}

// Validate checks the configuration before any component is built.
func (c *Config) Validate() error {
	if c.JavaPath == "" {
		return fmt.Errorf("java path must not be empty")
	}
	if c.JarPath == "" {
		return fmt.Errorf("pdffigures2 jar path must not be empty (set PDFFIGURES2_JAR)")
	}
	if c.DPI <= 0 {
		return fmt.Errorf("dpi must be greater than 0")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	for _, r := range []Retention{c.Upload, c.Output} {
		if r.Dir == "" {
			return fmt.Errorf("working directory must not be empty")
		}
		if r.MaxAge <= 0 {
			return fmt.Errorf("retention age for %s must be greater than 0", r.Dir)
		}
		if r.SweepInterval <= 0 {
			return fmt.Errorf("sweep interval for %s must be greater than 0", r.Dir)
		}
	}
	return nil
}
