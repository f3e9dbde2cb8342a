package extractor

import (
	"encoding/json"
	"errors"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ParseMetadata normalises a raw pdffigures2 metadata array into the
// canonical summary schema. document names the source file (no extension,
// no path); timeInMillis is the elapsed processing time to record.
//
// The input must decode as a JSON array of objects; any other shape yields a
// MalformedMetadataError. Records whose render artifact reference does not
// sanitize to a usable leaf name are excluded from the figure and table
// lists but still contribute to the distinct page count.
func ParseMetadata(raw []byte, document string, timeInMillis int64) (*DocumentSummary, error) {
	var records []FigureRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &MalformedMetadataError{Err: err}
	}

	summary := &DocumentSummary{
		Document:         document,
		TimeInMillis:     timeInMillis,
		MetadataFilename: document + ".json",
		Figures:          []FigureRecord{},
		Tables:           []FigureRecord{},
		RenderArtifacts:  []string{},
	}

	pages := make(map[int]struct{})
	artifacts := make(map[string]struct{})
	tableArtifacts := make(map[string]struct{})

	for _, rec := range records {
		pages[rec.Page] = struct{}{}

		leaf := sanitizeLeaf(rec.RenderURL)
		if leaf == "" {
			continue
		}
		rec.RenderURL = leaf

		switch rec.FigType {
		case "Figure":
			summary.Figures = append(summary.Figures, rec)
			artifacts[leaf] = struct{}{}
		case "Table":
			summary.Tables = append(summary.Tables, rec)
			artifacts[leaf] = struct{}{}
			tableArtifacts[leaf] = struct{}{}
		}
	}

	summary.Pages = len(pages)
	summary.FigureCount = len(summary.Figures)
	// Table rendering emits duplicate region entries sharing one artifact,
	// so tables are counted by distinct artifact rather than by record.
	summary.TableCount = len(tableArtifacts)

	for leaf := range artifacts {
		summary.RenderArtifacts = append(summary.RenderArtifacts, leaf)
	}
	sort.Strings(summary.RenderArtifacts)

	return summary, nil
}

// LoadMetadataFile reads and normalises a per-document metadata file. An
// empty document derives the name from the file's base name.
func LoadMetadataFile(metadataPath, document string, timeInMillis int64) (*DocumentSummary, error) {
	raw, err := os.ReadFile(metadataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MetadataNotFoundError{Path: metadataPath}
		}
		return nil, &MalformedMetadataError{Path: metadataPath, Err: err}
	}

	if document == "" {
		document = documentName(metadataPath)
	}

	summary, err := ParseMetadata(raw, document, timeInMillis)
	if err != nil {
		var malformed *MalformedMetadataError
		if errors.As(err, &malformed) {
			malformed.Path = metadataPath
		}
		return nil, err
	}
	return summary, nil
}

// sanitizeLeaf reduces a render artifact reference to its file system leaf
// name. The external tool embeds directory components in renderURL values;
// keeping only the leaf prevents a crafted path from escaping the output
// directory at download time. Both separator styles are handled since the
// reference is tool output, not a native path.
func sanitizeLeaf(ref string) string {
	if ref == "" {
		return ""
	}
	leaf := path.Base(strings.ReplaceAll(ref, "\\", "/"))
	if leaf == "." || leaf == ".." || leaf == "/" {
		return ""
	}
	return leaf
}

// documentName strips directory and extension from a source or metadata
// filename, yielding the document identifier.
func documentName(p string) string {
	base := filepath.Base(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
