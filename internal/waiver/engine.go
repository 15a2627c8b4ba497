package waiver

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"regexp"
	"strings"
	"time"

	"kerf/internal/message"
)

type entry struct {
	w       *Waiver
	index   int // position in file order
	re      *regexp.Regexp
	expired bool
	used    bool
}

// Engine answers "is this message waived" against a loaded acceptance
// list. Entries are partitioned by type at construction; matching runs
// in fixed type priority hash > id > pattern > file, and within a type
// the first entry in file order wins.
//
// The engine records which entries were consumed so stale waivers can be
// reported after the run. It is meant for a single synchronous
// invocation and is not safe for concurrent use.
type Engine struct {
	byType  map[Type][]*entry
	entries []*entry
}

// NewEngine builds an engine from already-validated waivers. Entries
// whose expires date is before now can never match but remain visible to
// the Unused/Expired reports. Pattern entries are assumed to have passed
// Load validation; one that still fails to compile is dropped.
func NewEngine(waivers []Waiver, now time.Time) *Engine {
	e := &Engine{byType: make(map[Type][]*entry)}
	today := now.Truncate(24 * time.Hour)

	for i := range waivers {
		w := &waivers[i]
		ent := &entry{w: w, index: i}

		if w.Type == TypePattern {
			re, err := regexp.Compile(w.Pattern)
			if err != nil {
				continue
			}
			ent.re = re
		}
		if w.Expires != "" {
			if exp, err := time.Parse(expiresLayout, w.Expires); err == nil && exp.Before(today) {
				ent.expired = true
			}
		}

		e.entries = append(e.entries, ent)
		e.byType[w.Type] = append(e.byType[w.Type], ent)
	}
	return e
}

// Match returns the waiver that accepts the message, if any, and flags it
// used. Expired entries never match.
func (e *Engine) Match(m *message.Message) (*Waiver, bool) {
	for _, t := range matchOrder {
		for _, ent := range e.byType[t] {
			if ent.expired || !severityAllowed(ent.w, m) {
				continue
			}
			if ent.matches(m) {
				ent.used = true
				return ent.w, true
			}
		}
	}
	return nil, false
}

// Unused returns the entries that matched nothing this run, in file
// order. These are the cleanup candidates.
func (e *Engine) Unused() []*Waiver {
	var out []*Waiver
	for _, ent := range e.entries {
		if !ent.used {
			out = append(out, ent.w)
		}
	}
	return out
}

// Expired returns the entries disabled by their expires date, in file
// order.
func (e *Engine) Expired() []*Waiver {
	var out []*Waiver
	for _, ent := range e.entries {
		if ent.expired {
			out = append(out, ent.w)
		}
	}
	return out
}

func (e *Engine) Len() int { return len(e.entries) }

func (ent *entry) matches(m *message.Message) bool {
	switch ent.w.Type {
	case TypeHash:
		return strings.EqualFold(HashOf(m.RawText), ent.w.payload())
	case TypeID:
		if m.ID == "" {
			return false
		}
		if m.ID == ent.w.Pattern {
			return true
		}
		ok, err := path.Match(ent.w.Pattern, m.ID)
		return err == nil && ok
	case TypePattern:
		return ent.re != nil && ent.re.MatchString(m.RawText)
	case TypeFile:
		if m.FileRef == nil {
			return false
		}
		return pathMatches(ent.w.Pattern, m.FileRef.Path)
	}
	return false
}

func severityAllowed(w *Waiver, m *message.Message) bool {
	if len(w.Severities) == 0 {
		return true
	}
	for _, s := range w.Severities {
		if strings.EqualFold(s, m.Severity) {
			return true
		}
	}
	return false
}

// pathMatches compares a file waiver pattern against a message's file
// path by exact, suffix, then glob comparison.
func pathMatches(pattern, p string) bool {
	if p == pattern || strings.HasSuffix(p, pattern) {
		return true
	}
	if ok, err := path.Match(pattern, p); err == nil && ok {
		return true
	}
	// Glob against the basename too, so "*.v" waives "/rtl/top.v".
	ok, err := path.Match(pattern, path.Base(p))
	return err == nil && ok
}

// HashOf is the stable content hash used by hash-type waivers: SHA-256 of
// the message's raw text, hex-encoded.
func HashOf(rawText string) string {
	sum := sha256.Sum256([]byte(rawText))
	return hex.EncodeToString(sum[:])
}
