// Package waiver loads acceptance lists and decides which messages are
// waived for CI purposes.
//
// Waivers are audited acceptance records (reason/author/date), distinct
// from display suppressions: a waived message no longer counts against
// the pass/fail verdict.
package waiver

import (
	"fmt"
)

// Type selects how a waiver matches messages.
type Type string

const (
	TypeHash    Type = "hash"
	TypeID      Type = "id"
	TypePattern Type = "pattern"
	TypeFile    Type = "file"
)

// matchOrder is the fixed evaluation priority across types.
var matchOrder = []Type{TypeHash, TypeID, TypePattern, TypeFile}

func validType(t Type) bool {
	switch t {
	case TypeHash, TypeID, TypePattern, TypeFile:
		return true
	}
	return false
}

// Waiver is one acceptance entry. Reason, Author and Date are mandatory
// audit metadata; an entry missing them never loads.
type Waiver struct {
	Type    Type   `toml:"type"`
	Pattern string `toml:"pattern"`
	// Hash is an alternative payload slot for hash-type entries; Pattern
	// is used when it is empty.
	Hash    string `toml:"hash"`
	Reason  string `toml:"reason"`
	Author  string `toml:"author"`
	Date    string `toml:"date"`
	Expires string `toml:"expires"`
	Ticket  string `toml:"ticket"`
	// Severities optionally restricts the waiver to messages carrying one
	// of these severity ids.
	Severities []string `toml:"severities"`
}

func (w *Waiver) payload() string {
	if w.Type == TypeHash && w.Hash != "" {
		return w.Hash
	}
	return w.Pattern
}

// File is a loaded acceptance list.
type File struct {
	Tool    string
	Path    string
	Waivers []Waiver
}

// ValidationError reports one malformed acceptance entry. It is scoped to
// that entry; the rest of the file still loads.
type ValidationError struct {
	Path   string
	Index  int // 0-based entry index, -1 for file-level problems
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("waiver file %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("waiver file %s: entry %d: %s", e.Path, e.Index+1, e.Reason)
}
