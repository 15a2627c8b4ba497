// Package vivado interprets Xilinx Vivado synthesis, implementation and
// bitstream logs. It is the bundled reference interpreter.
package vivado

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"kerf/internal/filter"
	"kerf/internal/interp"
	"kerf/internal/message"
	"kerf/internal/segment"
)

// Standard Vivado message shape: TYPE: [Category ID-Number] text [file:line]
var (
	// Severity prefixes in match order; CRITICAL WARNING must be tried
	// before WARNING.
	severityPrefixes = []struct {
		id string
		re *regexp.Regexp
	}{
		{"critical_warning", regexp.MustCompile(`^CRITICAL WARNING:\s*`)},
		{"error", regexp.MustCompile(`^ERROR:\s*`)},
		{"warning", regexp.MustCompile(`^WARNING:\s*`)},
		{"info", regexp.MustCompile(`^INFO:\s*`)},
	}

	messageIDRe = regexp.MustCompile(`\[([A-Za-z_]+ \d+-\d+)\]`)

	// File references: bracketed [/path/file.v:53] at end of line, or
	// inline /path/file.v:53.
	fileRefRe       = regexp.MustCompile(`\[([^\]]+):(\d+)\]\s*$`)
	fileRefInlineRe = regexp.MustCompile(`(/[^\s\[\]]+\.\w+):(\d+)`)

	headerRe = regexp.MustCompile(`(?m)^#.*Vivado v\d+\.\d+`)
)

// Message ID categories that identify a log as Vivado's.
var knownCategories = map[string]struct{}{
	"Synth": {}, "Vivado": {}, "IP_Flow": {}, "Common": {}, "DRC": {},
	"Timing": {}, "Route": {}, "Opt": {}, "Physopt": {}, "Power": {},
	"Device": {}, "Project": {}, "Constraints": {},
}

const (
	detectLines = 50
	// Cap on lines one message may absorb; keeps runaway tables from
	// swallowing the rest of the log.
	maxMessageLines = 100
)

type Interpreter struct {
	rules []segment.Rule
	sevs  message.SeveritySet
}

var _ interp.Interpreter = (*Interpreter)(nil)

func New() *Interpreter {
	start := `^(CRITICAL WARNING|ERROR|WARNING|INFO):`
	// Continuations: indented non-blank lines, table rows, separator rows.
	// Blank lines end a message.
	continuation := `^(?:[ \t]+\S|\|)|^(?:-+|=+)$`
	rule, err := segment.NewRule(start, continuation, maxMessageLines)
	if err != nil {
		panic(fmt.Sprintf("vivado boundary rule: %v", err))
	}
	return &Interpreter{
		rules: []segment.Rule{rule},
		sevs: message.NewSeveritySet([]message.SeverityLevel{
			{ID: "critical_warning", Name: "Critical Warning", Level: 3, Style: "red bold"},
			{ID: "error", Name: "Error", Level: 2, Style: "red"},
			{ID: "warning", Name: "Warning", Level: 1, Style: "yellow"},
			{ID: "info", Name: "Info", Level: 0, Style: "cyan"},
		}),
	}
}

func (v *Interpreter) Name() string    { return "vivado" }
func (v *Interpreter) Version() string { return "1.0.0" }

func (v *Interpreter) Description() string {
	return "Parser for Xilinx Vivado synthesis and implementation logs"
}

func (v *Interpreter) SeverityLevels() message.SeveritySet { return v.sevs }

// Detect scores the file by Vivado signatures in its first lines: the
// tool header, known message-id categories, severity-prefixed lines, and
// as a last resort the file name.
func (v *Interpreter) Detect(path string) float64 {
	f, err := os.Open(path)
	if err != nil {
		return 0.0
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() && len(lines) < detectLines {
		lines = append(lines, sc.Text())
	}
	head := strings.Join(lines, "\n")

	if headerRe.MatchString(head) {
		return 0.95
	}

	known := 0
	for _, m := range messageIDRe.FindAllStringSubmatch(head, -1) {
		cat, _, _ := strings.Cut(m[1], " ")
		if _, ok := knownCategories[cat]; ok {
			known++
		}
	}
	if known >= 3 {
		return 0.85
	}

	sevLines := 0
	for _, line := range lines {
		if detectSeverity(line) != "" {
			sevLines++
		}
	}
	if sevLines >= 5 {
		return 0.6
	}

	if strings.Contains(strings.ToLower(filepath.Base(path)), "vivado") {
		return 0.4
	}
	return 0.0
}

// Parse segments the log and keeps the severity-prefixed blocks as
// messages. Non-message lines (banners, progress output) are dropped.
func (v *Interpreter) Parse(path string) ([]message.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	blocks, err := segment.Split(f, v.rules)
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", path, err)
	}

	var msgs []message.Message
	for i := range blocks {
		b := &blocks[i]
		if b.Rule < 0 {
			continue
		}
		first := b.Lines[0]
		sev := detectSeverity(first)
		raw := b.Raw()
		id := extractMessageID(first)

		msg := message.Message{
			StartLine: b.StartLine,
			EndLine:   b.EndLine,
			RawText:   raw,
			Content:   extractContent(first, sev),
			Severity:  sev,
			ID:        id,
			Category:  categoryOf(id),
		}
		if ref, ok := v.FileReference(raw); ok {
			msg.FileRef = &ref
		}
		if b.Truncated {
			msg.Metadata = map[string]string{"truncated": "true"}
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// DefaultFilters returns the bundled filter set. Severity filters start
// enabled, topical ones start disabled.
func (v *Interpreter) DefaultFilters() []*filter.Definition {
	specs := []struct {
		id, name, pattern string
		enabled           bool
	}{
		{"errors", "Errors", `^ERROR:`, true},
		{"critical-warnings", "Critical Warnings", `^CRITICAL WARNING:`, true},
		{"warnings", "Warnings", `^WARNING:`, true},
		{"info", "Info", `^INFO:`, false},
		{"timing-issues", "Timing Issues", `(timing|slack|WNS|TNS|setup|hold)`, false},
		{"synthesis", "Synthesis", `\[Synth \d+-\d+\]`, false},
		{"drc", "DRC", `\[DRC \d+-\d+\]`, false},
		{"constraints", "Constraints", `\[Constraints \d+-\d+\]`, false},
		{"ip-flow", "IP Flow", `\[IP_Flow \d+-\d+\]`, false},
		{"routing", "Routing", `\[Route \d+-\d+\]`, false},
	}
	out := make([]*filter.Definition, 0, len(specs))
	for _, s := range specs {
		d, err := filter.New(s.id, s.name, s.pattern)
		if err != nil {
			panic(fmt.Sprintf("vivado builtin filter %s: %v", s.id, err))
		}
		d.Enabled = s.enabled
		d.Source = "plugin:vivado"
		out = append(out, d)
	}
	return out
}

// FileReference extracts a source file reference, preferring the
// bracketed end-of-line form over the inline form.
func (v *Interpreter) FileReference(content string) (message.FileRef, bool) {
	if m := fileRefRe.FindStringSubmatch(content); m != nil {
		line, _ := strconv.Atoi(m[2])
		return message.FileRef{Path: m[1], Line: line}, true
	}
	if m := fileRefInlineRe.FindStringSubmatch(content); m != nil {
		line, _ := strconv.Atoi(m[2])
		return message.FileRef{Path: m[1], Line: line}, true
	}
	return message.FileRef{}, false
}

func detectSeverity(line string) string {
	for _, sp := range severityPrefixes {
		if sp.re.MatchString(line) {
			return sp.id
		}
	}
	return ""
}

func extractMessageID(line string) string {
	if m := messageIDRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

// extractContent strips the severity prefix, message id and trailing file
// reference from the first line.
func extractContent(line, severity string) string {
	for _, sp := range severityPrefixes {
		if sp.id == severity {
			line = sp.re.ReplaceAllString(line, "")
			break
		}
	}
	line = messageIDRe.ReplaceAllString(line, "")
	line = fileRefRe.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

// categoryOf derives a category from the message id, e.g.
// "Synth 8-6157" -> "synth".
func categoryOf(id string) string {
	if id == "" {
		return ""
	}
	cat, _, _ := strings.Cut(id, " ")
	return strings.ToLower(cat)
}
