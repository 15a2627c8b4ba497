// Package filter selects and suppresses log messages with validated
// regular expressions.
//
// Patterns compile through Go's regexp package, which guarantees
// linear-time matching, so an unconstructible or pathological pattern
// never enters the engine.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"kerf/internal/message"
)

// CompileError reports a single pattern that failed to compile. It is
// scoped to that pattern; other filters in the same pass still apply.
type CompileError struct {
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("invalid filter pattern %q: %v", e.Pattern, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Definition is a named, validated filter. Enabled and Pattern are the
// only mutable fields and belong to the owning session.
type Definition struct {
	ID      string
	Name    string
	Enabled bool
	// Source tags provenance: "builtin", "plugin:<name>", "config", "user".
	Source string
	// Severity and Category optionally scope the filter to messages
	// carrying those values.
	Severity string
	Category string

	pattern string
	re      *regexp.Regexp
}

// New builds a definition, rejecting patterns that do not compile.
func New(id, name, pattern string) (*Definition, error) {
	d := &Definition{ID: id, Name: name, Enabled: true}
	if err := d.SetPattern(pattern); err != nil {
		return nil, err
	}
	return d, nil
}

// SetPattern replaces the pattern, revalidating it. On error the previous
// pattern stays in effect.
func (d *Definition) SetPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return &CompileError{Pattern: pattern, Err: err}
	}
	d.pattern = pattern
	d.re = re
	return nil
}

func (d *Definition) Pattern() string { return d.pattern }

// Matches reports whether the message satisfies the pattern and any
// severity/category scoping. The multi-line raw text is searched as one
// string, so a pattern can match across a line break.
func (d *Definition) Matches(m *message.Message) bool {
	if d.Severity != "" && !strings.EqualFold(d.Severity, m.Severity) {
		return false
	}
	if d.Category != "" && !strings.EqualFold(d.Category, m.Category) {
		return false
	}
	return d.re.MatchString(m.RawText)
}
