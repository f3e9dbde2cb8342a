package extractor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestCorrelateBatch(t *testing.T) {
	svc := &Service{logger: testLogger()}

	t.Run("missing stat file means zero documents, not a fault", func(t *testing.T) {
		items, err := svc.correlateBatch(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("one uncorrelatable document does not void the batch", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, StatFileName, `[
			{"filename": "uploads/alpha.pdf", "timeInMillis": 101, "numPages": 4},
			{"filename": "uploads/beta.pdf", "timeInMillis": 202},
			{"filename": "uploads/gamma.pdf", "timeInMillis": 303}
		]`)
		writeFile(t, dir, "alpha.json", `[{"figType": "Figure", "page": 0, "renderURL": "alpha-Figure1-1.png"}]`)
		// beta.json deliberately absent
		writeFile(t, dir, "gamma.json", `[{"figType": "Table", "page": 2, "renderURL": "gamma-Table1-1.png"}]`)

		items, err := svc.correlateBatch(dir)
		require.NoError(t, err)
		require.Len(t, items, 3)

		assert.NoError(t, items[0].Err)
		assert.Equal(t, "alpha", items[0].Summary.Document)
		assert.Equal(t, int64(101), items[0].Summary.TimeInMillis)

		require.Error(t, items[1].Err)
		var corr *CorrelationError
		require.ErrorAs(t, items[1].Err, &corr)
		assert.Equal(t, "beta", corr.Document)
		assert.Nil(t, items[1].Summary)

		assert.NoError(t, items[2].Err)
		assert.Equal(t, "gamma", items[2].Summary.Document)
	})

	t.Run("stat entry is authoritative for document and elapsed time", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, StatFileName, `[{"filename": "deep/nested/report-v2.pdf", "timeInMillis": 987}]`)
		writeFile(t, dir, "report-v2.json", `[
			{"figType": "Figure", "page": 0, "renderURL": "report-v2-Figure1-1.png"},
			{"figType": "Figure", "page": 2, "renderURL": "report-v2-Figure2-1.png"}
		]`)

		items, err := svc.correlateBatch(dir)
		require.NoError(t, err)
		require.Len(t, items, 1)

		summary := items[0].Summary
		require.NotNil(t, summary)
		assert.Equal(t, "report-v2", summary.Document)
		assert.Equal(t, int64(987), summary.TimeInMillis)
		// Pages come from the raw metadata, not the stat entry
		assert.Equal(t, 2, summary.Pages)
		assert.Equal(t, 2, summary.FigureCount)
	})

	t.Run("a malformed per-document file is contained like a missing one", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, StatFileName, `[{"filename": "bad.pdf", "timeInMillis": 5}]`)
		writeFile(t, dir, "bad.json", `{"not": "an array"}`)

		items, err := svc.correlateBatch(dir)
		require.NoError(t, err)
		require.Len(t, items, 1)

		var corr *CorrelationError
		require.ErrorAs(t, items[0].Err, &corr)
		var malformed *MalformedMetadataError
		assert.ErrorAs(t, corr.Err, &malformed)
	})

	t.Run("malformed stat file fails the batch", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, StatFileName, `{"oops": true}`)

		_, err := svc.correlateBatch(dir)
		var malformed *MalformedMetadataError
		require.ErrorAs(t, err, &malformed)
	})
}

func TestBatchItemJSON(t *testing.T) {
	t.Run("failure marshals as an error marker", func(t *testing.T) {
		item := BatchItem{Err: &CorrelationError{Document: "beta", Err: &MetadataNotFoundError{Path: "beta.json"}}}
		data, err := json.Marshal(item)
		require.NoError(t, err)

		var marker map[string]string
		require.NoError(t, json.Unmarshal(data, &marker))
		assert.Equal(t, "beta", marker["document"])
		assert.Contains(t, marker["error"], "beta.json")
	})

	t.Run("success marshals as the summary schema", func(t *testing.T) {
		item := BatchItem{Summary: &DocumentSummary{Document: "alpha", MetadataFilename: "alpha.json"}}
		data, err := json.Marshal(item)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, "alpha", decoded["document"])
		assert.NotContains(t, decoded, "error")
	})
}
