package filter

import (
	"regexp"

	"kerf/internal/message"
)

// Mode selects how ApplyAll combines enabled filters.
type Mode int

const (
	// ModeAll keeps a message only if every enabled filter matches it.
	ModeAll Mode = iota
	// ModeAny keeps a message if at least one enabled filter matches it.
	ModeAny
)

func (m Mode) String() string {
	if m == ModeAny {
		return "any"
	}
	return "all"
}

// Apply keeps the messages whose raw text matches the ad-hoc pattern.
// A pattern that does not compile yields a *CompileError.
func Apply(pattern string, msgs []message.Message, caseSensitive bool) ([]message.Message, error) {
	if !caseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &CompileError{Pattern: pattern, Err: err}
	}
	var out []message.Message
	for i := range msgs {
		if re.MatchString(msgs[i].RawText) {
			out = append(out, msgs[i])
		}
	}
	return out, nil
}

// ApplyAll combines the enabled filters over msgs. With zero enabled
// filters all messages are kept in both modes, so an empty OR set does
// not silently hide everything.
func ApplyAll(filters []*Definition, msgs []message.Message, mode Mode) []message.Message {
	enabled := enabledOf(filters)
	if len(enabled) == 0 {
		out := make([]message.Message, len(msgs))
		copy(out, msgs)
		return out
	}

	var out []message.Message
	for i := range msgs {
		if combineMatch(enabled, &msgs[i], mode) {
			out = append(out, msgs[i])
		}
	}
	return out
}

// Suppress removes messages matching any of the given patterns. Patterns
// that fail to compile are skipped and reported; the valid ones still
// apply.
func Suppress(patterns []string, msgs []message.Message) ([]message.Message, []error) {
	var res []*regexp.Regexp
	var errs []error
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			errs = append(errs, &CompileError{Pattern: p, Err: err})
			continue
		}
		res = append(res, re)
	}
	if len(res) == 0 {
		out := make([]message.Message, len(msgs))
		copy(out, msgs)
		return out, errs
	}

	var out []message.Message
outer:
	for i := range msgs {
		for _, re := range res {
			if re.MatchString(msgs[i].RawText) {
				continue outer
			}
		}
		out = append(out, msgs[i])
	}
	return out, errs
}

// SuppressIDs removes messages whose id is in ids. Messages without an id
// are never suppressed here.
func SuppressIDs(ids []string, msgs []message.Message) []message.Message {
	if len(ids) == 0 {
		out := make([]message.Message, len(msgs))
		copy(out, msgs)
		return out
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	var out []message.Message
	for i := range msgs {
		if msgs[i].ID != "" {
			if _, ok := drop[msgs[i].ID]; ok {
				continue
			}
		}
		out = append(out, msgs[i])
	}
	return out
}

// Stats describes how a filter set relates to a message list. PerFilter
// counts are computed independently per filter, not gated by the others,
// so a UI can show each filter's individual yield.
type Stats struct {
	Total      int
	Matched    int // messages matching all enabled filters
	Percentage float64
	PerFilter  map[string]int // filter id -> independent match count
}

func ComputeStats(filters []*Definition, msgs []message.Message) Stats {
	st := Stats{Total: len(msgs), PerFilter: make(map[string]int)}

	for _, f := range enabledOf(filters) {
		n := 0
		for i := range msgs {
			if f.Matches(&msgs[i]) {
				n++
			}
		}
		st.PerFilter[f.ID] = n
	}

	st.Matched = len(ApplyAll(filters, msgs, ModeAll))
	if st.Total > 0 {
		st.Percentage = float64(st.Matched) / float64(st.Total) * 100.0
	}
	return st
}

func enabledOf(filters []*Definition) []*Definition {
	var out []*Definition
	for _, f := range filters {
		if f != nil && f.Enabled {
			out = append(out, f)
		}
	}
	return out
}

func combineMatch(enabled []*Definition, m *message.Message, mode Mode) bool {
	if mode == ModeAny {
		for _, f := range enabled {
			if f.Matches(m) {
				return true
			}
		}
		return false
	}
	for _, f := range enabled {
		if !f.Matches(m) {
			return false
		}
	}
	return true
}
