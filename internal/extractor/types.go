package extractor

import (
	"encoding/json"
	"errors"
)

// FigureRecord is one entry of the pdffigures2 per-document metadata array.
// Only the fields the summary schema depends on are decoded; anything else
// the tool emits (captions, region boundaries, render DPI) is ignored.
type FigureRecord struct {
	FigType   string `json:"figType"`             // "Figure" or "Table"
	Name      string `json:"name,omitempty"`      // region identifier within the document
	Page      int    `json:"page"`                // zero-based page index
	Caption   string `json:"caption,omitempty"`   // caption text if the tool detected one
	RenderURL string `json:"renderURL,omitempty"` // render artifact reference, reduced to its leaf name
}

// DocumentSummary is the canonical, schema-stable record produced for one
// document, regardless of whether it was processed in single or batch mode.
// JSON field names match the original service schema so existing clients
// keep working.
type DocumentSummary struct {
	Document         string         `json:"document"`
	FigureCount      int            `json:"n_figures"`
	TableCount       int            `json:"n_tables"`
	Pages            int            `json:"pages"`
	TimeInMillis     int64          `json:"time_in_millis"`
	MetadataFilename string         `json:"metadata_filename"`
	Figures          []FigureRecord `json:"figures"`
	Tables           []FigureRecord `json:"tables"`

	// RenderArtifacts lists the file system leaf names referenced by the
	// figure and table records, sorted and deduplicated. The download
	// boundary resolves these against the output directory; directory
	// components never appear here.
	RenderArtifacts []string `json:"render_artifacts"`
}

// BatchStatEntry is one row of the statistics side-channel file pdffigures2
// writes in batch mode. It is consumed once during correlation and not
// retained afterwards.
type BatchStatEntry struct {
	Filename     string `json:"filename"`
	TimeInMillis int64  `json:"timeInMillis"`
	NumPages     int    `json:"numPages,omitempty"`
	NumFigures   int    `json:"numFigures,omitempty"`
}

// BatchItem is one element of a batch extraction result: either a summary or
// a contained per-document error, never both. A failed document does not
// void the rest of the batch.
type BatchItem struct {
	Summary *DocumentSummary
	Err     error
}

// MarshalJSON renders a summary directly, or a contained failure as the
// error-marker object the original batch schema used.
func (b BatchItem) MarshalJSON() ([]byte, error) {
	if b.Err == nil {
		return json.Marshal(b.Summary)
	}
	marker := struct {
		Document string `json:"document,omitempty"`
		Error    string `json:"error"`
	}{Error: b.Err.Error()}

	var corr *CorrelationError
	if errors.As(b.Err, &corr) {
		marker.Document = corr.Document
	}
	return json.Marshal(marker)
}
