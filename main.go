package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/figserve/figserve/internal/config"
	"github.com/figserve/figserve/internal/extractor"
	"github.com/figserve/figserve/internal/sweeper"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// parseLogLevel parses the LOG_LEVEL environment variable and returns the
// appropriate logrus level. Defaults to InfoLevel if not set or invalid.
func parseLogLevel() logrus.Level {
	logLevelStr := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))

	switch logLevelStr {
	case "debug":
		return logrus.DebugLevel
	case "info", "":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

func main() {
	// Create context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A .env file is optional; real environment variables win when both exist
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(parseLogLevel())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	app := &cli.App{
		Name:    "figserve",
		Usage:   "Extract figure and table metadata from PDFs with pdffigures2",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file overriding the environment",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "Extract figures and tables from a PDF file or a directory of PDFs",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output-dir",
						Aliases: []string{"o"},
						Usage:   "Directory to write metadata and render artifacts to",
					},
				},
				Action: func(c *cli.Context) error {
					return runExtract(ctx, c, logger)
				},
			},
			{
				Name:  "sweep",
				Usage: "Delete aged files from the upload and output directories",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "daemon",
						Usage: "Keep sweeping on the configured intervals until interrupted",
					},
				},
				Action: func(c *cli.Context) error {
					return runSweep(ctx, c, logger)
				},
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// loadConfig builds the process configuration from the environment plus an
// optional YAML file named by --config.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if path := c.String("config"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runExtract(ctx context.Context, c *cli.Context, logger *logrus.Logger) error {
	inputPath := c.Args().First()
	if inputPath == "" {
		return fmt.Errorf("missing required argument: path to a PDF file or directory")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	outputDir := c.String("output-dir")
	if outputDir == "" {
		outputDir = cfg.Output.Dir
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("invalid input path: %w", err)
	}

	svc := extractor.New(cfg, logger)

	if info.IsDir() {
		items, err := svc.ExtractBatch(ctx, inputPath, outputDir)
		if err != nil {
			return err
		}
		if err := printJSON(items); err != nil {
			return err
		}
		color.Green("Processed %d document(s) into %s", len(items), outputDir)
		return nil
	}

	summary, err := svc.ExtractOne(ctx, inputPath, outputDir)
	if err != nil {
		return err
	}
	if err := printJSON(summary); err != nil {
		return err
	}
	color.Green("Extracted %d figure(s) and %d table(s) from %s", summary.FigureCount, summary.TableCount, inputPath)
	return nil
}

func runSweep(ctx context.Context, c *cli.Context, logger *logrus.Logger) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	sw := sweeper.New(logger, cfg.Upload, cfg.Output)

	if c.Bool("daemon") {
		if !cfg.SweepEnabled {
			return fmt.Errorf("sweeping is disabled (ENABLE_CLEANUP=false)")
		}
		sw.Run(ctx)
		return nil
	}

	total := sweeper.SweepStats{}
	for _, root := range []config.Retention{cfg.Upload, cfg.Output} {
		stats := sw.SweepRoot(root)
		total.Removed += stats.Removed
		total.Bytes += stats.Bytes
	}
	color.Green("Removed %d file(s), reclaimed %.2f MB", total.Removed, float64(total.Bytes)/(1024*1024))
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
