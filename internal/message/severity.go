package message

import "strings"

// SeverityLevel is an interpreter-defined severity classification.
// Ordering is always numeric on Level; the engine never compares ids.
type SeverityLevel struct {
	ID    string
	Name  string
	Level int    // higher = more severe
	Style string // display hint, e.g. "red bold"
}

// SeveritySet holds an interpreter's severity levels in declaration order
// with case-insensitive id lookup.
type SeveritySet struct {
	levels []SeverityLevel
	byID   map[string]SeverityLevel
}

func NewSeveritySet(levels []SeverityLevel) SeveritySet {
	byID := make(map[string]SeverityLevel, len(levels))
	for _, l := range levels {
		byID[strings.ToLower(l.ID)] = l
	}
	return SeveritySet{levels: levels, byID: byID}
}

// Levels returns the levels in the order the interpreter declared them.
func (s SeveritySet) Levels() []SeverityLevel { return s.levels }

func (s SeveritySet) Len() int { return len(s.levels) }

func (s SeveritySet) Lookup(id string) (SeverityLevel, bool) {
	l, ok := s.byID[strings.ToLower(id)]
	return l, ok
}

// AtOrAbove reports whether the severity id ranks at or above min.
// Unknown or empty ids never qualify.
func (s SeveritySet) AtOrAbove(id string, min int) bool {
	l, ok := s.Lookup(id)
	return ok && l.Level >= min
}
