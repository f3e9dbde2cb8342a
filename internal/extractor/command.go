package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// kcmsProperty forces the legacy colour management module. Without it the
// JVM's default CMM rejects the colour profiles embedded in many PDFs.
const kcmsProperty = "-Dsun.java2d.cmm=sun.java2d.cmm.kcms.KcmsServiceProvider"

// CommandBuilder constructs pdffigures2 argument vectors. It is a pure
// value: no side effects, no filesystem access beyond path resolution.
type CommandBuilder struct {
	JavaPath string   // java executable, usually just "java"
	JarPath  string   // path to pdffigures2.jar
	JavaOpts []string // JVM options, e.g. ["-Xmx2g"]
	DPI      int      // render DPI for figure artifacts
}

// Single builds the argument vector for a single-document invocation.
func (b *CommandBuilder) Single(inputPath, outputDir string) ([]string, error) {
	input, err := filepath.Abs(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve input path: %w", err)
	}
	out, err := b.outputDirArg(outputDir)
	if err != nil {
		return nil, err
	}
	args := b.base()
	args = append(args, input, "-m", out, "-d", out, "--dpi", strconv.Itoa(b.DPI))
	return args, nil
}

// Batch builds the argument vector for a whole-directory invocation with the
// statistics side-channel file.
func (b *CommandBuilder) Batch(inputDir, outputDir, statFile string) ([]string, error) {
	input, err := filepath.Abs(inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve input directory: %w", err)
	}
	out, err := b.outputDirArg(outputDir)
	if err != nil {
		return nil, err
	}
	stat, err := filepath.Abs(statFile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve stat file path: %w", err)
	}
	args := b.base()
	// Batch mode wants the input directory with a trailing separator too.
	args = append(args, ensureTrailingSeparator(input),
		"-s", stat, "-m", out, "-d", out, "--dpi", strconv.Itoa(b.DPI))
	return args, nil
}

// base returns the invocation prefix shared by both modes.
func (b *CommandBuilder) base() []string {
	args := make([]string, 0, len(b.JavaOpts)+4)
	args = append(args, b.JavaPath)
	args = append(args, b.JavaOpts...)
	args = append(args, kcmsProperty, "-jar", b.JarPath)
	return args
}

// outputDirArg resolves the output directory to absolute form with a
// trailing separator. pdffigures2 silently treats a directory argument
// without a trailing separator as a filename prefix, corrupting every output
// filename, so the separator is appended here exactly once regardless of
// what the caller supplied.
func (b *CommandBuilder) outputDirArg(outputDir string) (string, error) {
	abs, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output directory: %w", err)
	}
	return ensureTrailingSeparator(abs), nil
}

func ensureTrailingSeparator(dir string) string {
	if len(dir) > 0 && dir[len(dir)-1] == os.PathSeparator {
		return dir
	}
	return dir + string(os.PathSeparator)
}
