package extractor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// StatFileName is the statistics side-channel file pdffigures2 writes into
// the output directory in batch mode.
const StatFileName = "stat_file.json"

// correlateBatch joins the batch statistics file with the per-document
// metadata files in outputDir, producing one item per stat entry.
//
// A missing stat file means the batch produced zero documents, not a fault.
// A document whose metadata file is missing or unreadable becomes a
// contained CorrelationError item; the remaining entries still correlate.
// The stat entry is authoritative for the document name and the elapsed
// time, since the per-document file knows neither.
func (s *Service) correlateBatch(outputDir string) ([]BatchItem, error) {
	statPath := filepath.Join(outputDir, StatFileName)

	raw, err := os.ReadFile(statPath)
	if os.IsNotExist(err) {
		s.logger.WithField("stat_file", statPath).Debug("No statistics file, batch produced zero documents")
		return []BatchItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read statistics file: %w", err)
	}

	var stats []BatchStatEntry
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, &MalformedMetadataError{Path: statPath, Err: err}
	}

	items := make([]BatchItem, 0, len(stats))
	for _, stat := range stats {
		doc := documentName(stat.Filename)
		metadataPath := filepath.Join(outputDir, doc+".json")

		summary, err := LoadMetadataFile(metadataPath, doc, stat.TimeInMillis)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"document":      doc,
				"metadata_file": metadataPath,
			}).WithError(err).Warn("Skipping document with uncorrelatable metadata")
			items = append(items, BatchItem{Err: &CorrelationError{Document: doc, Err: err}})
			continue
		}

		summary.Document = doc
		summary.TimeInMillis = stat.TimeInMillis
		items = append(items, BatchItem{Summary: summary})
	}

	return items, nil
}
