package extractor

import (
	"fmt"
	"time"
)

// TimeoutError reports that the external tool exceeded its configured bound
// and was forcibly terminated. The call is fatal; no partial output is
// salvaged and no retry is attempted.
type TimeoutError struct {
	Input   string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("pdffigures2 timed out after %s processing %s", e.Timeout, e.Input)
}

// ToolError reports a non-zero exit from the external tool, carrying its
// captured standard error for diagnostics.
type ToolError struct {
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("pdffigures2 exited with code %d: %s", e.ExitCode, e.Stderr)
}

// MalformedMetadataError reports per-document output that did not match the
// expected array-of-objects shape. Parsing fails closed rather than guessing
// at structure.
type MalformedMetadataError struct {
	Path string
	Err  error
}

func (e *MalformedMetadataError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("malformed metadata in %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("malformed metadata: %v", e.Err)
}

func (e *MalformedMetadataError) Unwrap() error { return e.Err }

// MetadataNotFoundError reports that the external tool exited successfully
// but produced no metadata file. That is a tool-contract violation worth
// alerting on, not an empty result.
type MetadataNotFoundError struct {
	Path string
}

func (e *MetadataNotFoundError) Error() string {
	return fmt.Sprintf("metadata file not found: %s", e.Path)
}

// CorrelationError marks a single document inside a batch result whose
// per-document metadata could not be loaded. It is contained in the batch
// item list and never fails the batch as a whole.
type CorrelationError struct {
	Document string
	Err      error
}

func (e *CorrelationError) Error() string {
	return fmt.Sprintf("failed to correlate metadata for %s: %v", e.Document, e.Err)
}

func (e *CorrelationError) Unwrap() error { return e.Err }
