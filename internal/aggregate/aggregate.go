// Package aggregate groups messages for summary views: counts by
// severity, message id, source file or category within one log file.
package aggregate

import (
	"sort"
	"strings"

	"kerf/internal/message"
)

// Fields lists the grouping dimensions available to GroupBy.
var Fields = []string{"severity", "id", "file", "category"}

// Group is one bucket of messages sharing a field value.
type Group struct {
	Key      string
	Severity string // highest severity seen in the group
	Count    int
	Messages []message.Message
	Files    []string // unique files affected, sorted
}

// GroupBy buckets msgs by the given field. Severity groups come out most
// severe first; any other field sorts by count descending, then key. A
// message without the field lands in the "(none)" bucket.
func GroupBy(field string, msgs []message.Message, sevs message.SeveritySet) []Group {
	byKey := make(map[string]*Group)
	var order []string

	for i := range msgs {
		key, ok := msgs[i].Field(field)
		if !ok || key == "" {
			key = "(none)"
		}
		g := byKey[key]
		if g == nil {
			g = &Group{Key: key}
			byKey[key] = g
			order = append(order, key)
		}
		g.Count++
		g.Messages = append(g.Messages, msgs[i])
		if ref := msgs[i].FileRef; ref != nil {
			g.Files = appendUnique(g.Files, ref.Path)
		}
		if higherSeverity(msgs[i].Severity, g.Severity, sevs) {
			g.Severity = msgs[i].Severity
		}
	}

	out := make([]Group, 0, len(order))
	for _, key := range order {
		sort.Strings(byKey[key].Files)
		out = append(out, *byKey[key])
	}

	if field == "severity" {
		sort.SliceStable(out, func(a, b int) bool {
			return severityRank(out[a].Key, sevs) > severityRank(out[b].Key, sevs)
		})
	} else {
		sort.SliceStable(out, func(a, b int) bool {
			if out[a].Count != out[b].Count {
				return out[a].Count > out[b].Count
			}
			return out[a].Key < out[b].Key
		})
	}
	return out
}

// SeveritySummary is the per-severity rollup with a message-id breakdown.
type SeveritySummary struct {
	Severity string
	Total    int
	ByID     map[string]int
}

// Summary rolls msgs up by severity, most severe first; messages without
// a severity collect under "other" at the end.
func Summary(msgs []message.Message, sevs message.SeveritySet) []SeveritySummary {
	byKey := make(map[string]*SeveritySummary)
	for i := range msgs {
		key := strings.ToLower(msgs[i].Severity)
		if key == "" {
			key = "other"
		}
		s := byKey[key]
		if s == nil {
			s = &SeveritySummary{Severity: key, ByID: make(map[string]int)}
			byKey[key] = s
		}
		s.Total++
		if id := msgs[i].ID; id != "" {
			s.ByID[id]++
		}
	}

	out := make([]SeveritySummary, 0, len(byKey))
	for _, s := range byKey {
		out = append(out, *s)
	}
	sort.SliceStable(out, func(a, b int) bool {
		ra, rb := severityRank(out[a].Severity, sevs), severityRank(out[b].Severity, sevs)
		if ra != rb {
			return ra > rb
		}
		return out[a].Severity < out[b].Severity
	})
	return out
}

// severityRank orders severities numerically; unknown ids rank below
// every known level but above missing ones.
func severityRank(id string, sevs message.SeveritySet) int {
	if l, ok := sevs.Lookup(id); ok {
		return l.Level
	}
	if id == "other" || id == "" || id == "(none)" {
		return -2
	}
	return -1
}

func higherSeverity(a, b string, sevs message.SeveritySet) bool {
	return severityRank(a, sevs) > severityRank(b, sevs)
}

func appendUnique(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}
