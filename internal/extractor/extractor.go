// Package extractor orchestrates pdffigures2 invocations and normalises the
// tool's heterogeneous output into one canonical summary schema. The tool is
// an opaque boundary: an argument vector goes in, exit status plus
// filesystem side effects come out, and every tool quirk stays isolated in
// the command builder and the normaliser.
package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/figserve/figserve/internal/config"
)

// Service is the public entry point for single-document and batch
// extraction. Calls are synchronous and block for up to the configured
// timeout; concurrent callers are independent given disjoint output
// directories.
type Service struct {
	builder CommandBuilder
	runner  Runner
	workDir string
	logger  *logrus.Logger
}

// New builds a Service from the process configuration.
func New(cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		builder: CommandBuilder{
			JavaPath: cfg.JavaPath,
			JarPath:  cfg.JarPath,
			JavaOpts: cfg.JavaOpts,
			DPI:      cfg.DPI,
		},
		runner:  NewRunner(cfg.Timeout, logger),
		workDir: cfg.WorkDir,
		logger:  logger,
	}
}

// ExtractOne runs pdffigures2 on a single PDF and returns its canonical
// summary. Timeout, tool failure, and malformed metadata propagate as typed
// errors; a successful run with no metadata file is a tool-contract
// violation reported as MetadataNotFoundError.
func (s *Service) ExtractOne(ctx context.Context, inputPath, outputDir string) (*DocumentSummary, error) {
	log := s.logger.WithFields(logrus.Fields{
		"extraction_id": uuid.NewString(),
		"input":         inputPath,
		"output_dir":    outputDir,
	})

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	args, err := s.builder.Single(inputPath, outputDir)
	if err != nil {
		return nil, err
	}

	result, err := s.runner.Run(ctx, args, s.workDir)
	if err != nil {
		return nil, err
	}

	doc := documentName(inputPath)
	metadataPath := filepath.Join(outputDir, doc+".json")
	if _, err := os.Stat(metadataPath); err != nil {
		log.WithField("metadata_file", metadataPath).Error("Tool succeeded but produced no metadata file")
		return nil, &MetadataNotFoundError{Path: metadataPath}
	}

	summary, err := LoadMetadataFile(metadataPath, doc, result.Duration.Milliseconds())
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"figures":        summary.FigureCount,
		"tables":         summary.TableCount,
		"pages":          summary.Pages,
		"time_in_millis": summary.TimeInMillis,
	}).Debug("Extraction completed")

	return summary, nil
}

// ExtractBatch runs pdffigures2 once over a directory of PDFs and
// correlates the statistics side-channel with the per-document metadata
// files. Batch-level failures propagate like ExtractOne's; per-document
// failures are contained as CorrelationError items in the result.
func (s *Service) ExtractBatch(ctx context.Context, inputDir, outputDir string) ([]BatchItem, error) {
	log := s.logger.WithFields(logrus.Fields{
		"extraction_id": uuid.NewString(),
		"input_dir":     inputDir,
		"output_dir":    outputDir,
	})

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	statFile := filepath.Join(outputDir, StatFileName)
	args, err := s.builder.Batch(inputDir, outputDir, statFile)
	if err != nil {
		return nil, err
	}

	if _, err := s.runner.Run(ctx, args, s.workDir); err != nil {
		return nil, err
	}

	items, err := s.correlateBatch(outputDir)
	if err != nil {
		return nil, err
	}

	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
		}
	}
	log.WithFields(logrus.Fields{
		"documents": len(items),
		"failed":    failed,
	}).Debug("Batch extraction completed")

	return items, nil
}
