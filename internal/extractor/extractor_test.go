package extractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/figserve/figserve/internal/config"
)

// fakeRunner stands in for the external tool: onRun mimics the tool's
// filesystem side effects before the canned result is returned.
type fakeRunner struct {
	result *RunResult
	err    error
	onRun  func(args []string)
	args   []string
}

func (f *fakeRunner) Run(_ context.Context, args []string, _ string) (*RunResult, error) {
	f.args = args
	if f.onRun != nil {
		f.onRun(args)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func testService(runner Runner) *Service {
	return &Service{
		builder: CommandBuilder{JavaPath: "java", JarPath: "/opt/pdffigures2/pdffigures2.jar", DPI: 300},
		runner:  runner,
		logger:  testLogger(),
	}
}

// fixtureMetadata is a hand-authored tool output: two figures plus one table
// rendered as two duplicate region entries sharing a single artifact.
const fixtureMetadata = `[
	{"figType": "Figure", "name": "1", "page": 0, "renderURL": "/work/out/paper-Figure1-1.png"},
	{"figType": "Figure", "name": "2", "page": 1, "renderURL": "/work/out/paper-Figure2-1.png"},
	{"figType": "Table", "name": "1", "page": 2, "renderURL": "/work/out/paper-Table1-1.png"},
	{"figType": "Table", "name": "1", "page": 2, "renderURL": "/work/out/paper-Table1-1.png"}
]`

func TestExtractOne(t *testing.T) {
	ctx := context.Background()

	t.Run("round-trips a fixture document", func(t *testing.T) {
		outputDir := t.TempDir()
		runner := &fakeRunner{
			result: &RunResult{Duration: 250 * time.Millisecond},
			onRun: func([]string) {
				writeFile(t, outputDir, "paper.json", fixtureMetadata)
			},
		}
		svc := testService(runner)

		summary, err := svc.ExtractOne(ctx, "/uploads/paper.pdf", outputDir)
		require.NoError(t, err)

		assert.Equal(t, "paper", summary.Document)
		assert.Equal(t, 2, summary.FigureCount)
		assert.Equal(t, 1, summary.TableCount)
		assert.Equal(t, 3, summary.Pages)
		assert.Equal(t, int64(250), summary.TimeInMillis)
		assert.Equal(t, "paper.json", summary.MetadataFilename)
		assert.ElementsMatch(t, []string{"paper-Figure1-1.png", "paper-Figure2-1.png", "paper-Table1-1.png"},
			summary.RenderArtifacts)
	})

	t.Run("creates the output directory", func(t *testing.T) {
		outputDir := filepath.Join(t.TempDir(), "nested", "out")
		runner := &fakeRunner{
			result: &RunResult{},
			onRun: func([]string) {
				writeFile(t, outputDir, "paper.json", `[]`)
			},
		}
		svc := testService(runner)

		_, err := svc.ExtractOne(ctx, "/uploads/paper.pdf", outputDir)
		require.NoError(t, err)
		_, err = os.Stat(outputDir)
		assert.NoError(t, err)
	})

	t.Run("propagates timeout errors unchanged", func(t *testing.T) {
		want := &TimeoutError{Input: "/uploads/paper.pdf", Timeout: time.Second}
		svc := testService(&fakeRunner{err: want})

		_, err := svc.ExtractOne(ctx, "/uploads/paper.pdf", t.TempDir())
		var timeoutErr *TimeoutError
		require.ErrorAs(t, err, &timeoutErr)
		assert.Same(t, want, timeoutErr)
	})

	t.Run("propagates tool failures unchanged", func(t *testing.T) {
		want := &ToolError{ExitCode: 1, Stderr: "Exception in thread \"main\""}
		svc := testService(&fakeRunner{err: want})

		_, err := svc.ExtractOne(ctx, "/uploads/paper.pdf", t.TempDir())
		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Same(t, want, toolErr)
	})

	t.Run("successful run with no metadata file is a contract violation", func(t *testing.T) {
		svc := testService(&fakeRunner{result: &RunResult{}})

		_, err := svc.ExtractOne(ctx, "/uploads/paper.pdf", t.TempDir())
		var notFound *MetadataNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Contains(t, notFound.Path, "paper.json")
	})

	t.Run("malformed metadata fails the call", func(t *testing.T) {
		outputDir := t.TempDir()
		runner := &fakeRunner{
			result: &RunResult{},
			onRun: func([]string) {
				writeFile(t, outputDir, "paper.json", `"not an array"`)
			},
		}
		svc := testService(runner)

		_, err := svc.ExtractOne(ctx, "/uploads/paper.pdf", outputDir)
		var malformed *MalformedMetadataError
		require.ErrorAs(t, err, &malformed)
	})
}

func TestExtractBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("runs once and correlates the whole directory", func(t *testing.T) {
		outputDir := t.TempDir()
		runner := &fakeRunner{
			result: &RunResult{Duration: time.Second},
			onRun: func([]string) {
				writeFile(t, outputDir, StatFileName, `[
					{"filename": "alpha.pdf", "timeInMillis": 40},
					{"filename": "beta.pdf", "timeInMillis": 60}
				]`)
				writeFile(t, outputDir, "alpha.json", `[{"figType": "Figure", "page": 0, "renderURL": "alpha-Figure1-1.png"}]`)
				writeFile(t, outputDir, "beta.json", `[]`)
			},
		}
		svc := testService(runner)

		items, err := svc.ExtractBatch(ctx, "/uploads/batch", outputDir)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "alpha", items[0].Summary.Document)
		assert.Equal(t, int64(40), items[0].Summary.TimeInMillis)
		assert.Equal(t, "beta", items[1].Summary.Document)

		// The invocation carried the batch stat flag
		assert.Contains(t, runner.args, "-s")
	})

	t.Run("tool failure fails the whole batch", func(t *testing.T) {
		want := &ToolError{ExitCode: 2, Stderr: "bad folder"}
		svc := testService(&fakeRunner{err: want})

		_, err := svc.ExtractBatch(ctx, "/uploads/batch", t.TempDir())
		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
	})

	t.Run("empty batch yields an empty result", func(t *testing.T) {
		svc := testService(&fakeRunner{result: &RunResult{}})
		items, err := svc.ExtractBatch(ctx, "/uploads/empty", t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestNew(t *testing.T) {
	cfg := config.Default()
	cfg.JarPath = "/opt/pdffigures2/pdffigures2.jar"
	cfg.JavaOpts = []string{"-Xmx4g"}

	svc := New(cfg, testLogger())
	require.NotNil(t, svc)
	assert.Equal(t, cfg.JarPath, svc.builder.JarPath)
	assert.Equal(t, cfg.JavaOpts, svc.builder.JavaOpts)
	assert.Equal(t, cfg.DPI, svc.builder.DPI)
}
