// Package interp defines the interpreter capability contract and the
// deterministic selection of one interpreter per log file.
package interp

import (
	"kerf/internal/filter"
	"kerf/internal/message"
)

// DetectThreshold is the minimum confidence an interpreter must report
// for auto-detection to consider it a candidate.
const DetectThreshold = 0.5

// Interpreter is the capability contract a log format implementation
// provides. An interpreter with no opinion on an operation returns the
// neutral value (0.0 confidence, empty list, false) rather than erroring.
type Interpreter interface {
	Name() string
	Description() string
	Version() string

	// Detect reports how confident the interpreter is, in [0,1], that it
	// can correctly parse the file at path.
	Detect(path string) float64

	// Parse loads the file and segments it into ordered messages. It is a
	// single blocking operation; the returned slice is fully materialized.
	Parse(path string) ([]message.Message, error)

	// DefaultFilters returns the interpreter's bundled filter definitions.
	DefaultFilters() []*filter.Definition

	// SeverityLevels returns the interpreter's severity classification.
	SeverityLevels() message.SeveritySet

	// FileReference extracts a source file reference from message content.
	FileReference(content string) (message.FileRef, bool)
}
