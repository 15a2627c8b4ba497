// Package report renders triage results for humans (colored terminal
// output) and machines (the JSON CI report).
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"kerf/internal/aggregate"
	"kerf/internal/filter"
	"kerf/internal/message"
	"kerf/internal/waiver"
)

// Printer writes human-readable output. Severity styling comes from the
// interpreter's severity set, so the printer hardcodes no severity names.
type Printer struct {
	w      io.Writer
	plain  *color.Color
	styles map[string]*color.Color
}

func NewPrinter(w io.Writer, useColor bool, sevs message.SeveritySet) *Printer {
	p := &Printer{w: w, plain: color.New(), styles: make(map[string]*color.Color)}
	p.plain.DisableColor()
	for _, l := range sevs.Levels() {
		c := styleColor(l.Style)
		if !useColor {
			c.DisableColor()
		}
		p.styles[strings.ToLower(l.ID)] = c
	}
	return p
}

// styleColor translates an interpreter style hint ("red bold", "yellow",
// "cyan") into color attributes. Unknown words are ignored.
func styleColor(style string) *color.Color {
	var attrs []color.Attribute
	for _, word := range strings.Fields(strings.ToLower(style)) {
		switch word {
		case "red":
			attrs = append(attrs, color.FgRed)
		case "yellow":
			attrs = append(attrs, color.FgYellow)
		case "green":
			attrs = append(attrs, color.FgGreen)
		case "cyan":
			attrs = append(attrs, color.FgCyan)
		case "blue":
			attrs = append(attrs, color.FgBlue)
		case "magenta":
			attrs = append(attrs, color.FgMagenta)
		case "white":
			attrs = append(attrs, color.FgWhite)
		case "bold":
			attrs = append(attrs, color.Bold)
		case "dim":
			attrs = append(attrs, color.Faint)
		}
	}
	return color.New(attrs...)
}

func (p *Printer) styleFor(severity string) *color.Color {
	if c, ok := p.styles[strings.ToLower(severity)]; ok {
		return c
	}
	return p.plain
}

// Messages prints each message's raw text, styled by severity.
func (p *Printer) Messages(msgs []message.Message) {
	for i := range msgs {
		p.styleFor(msgs[i].Severity).Fprintln(p.w, msgs[i].RawText)
	}
}

// Stats prints the filter match statistics with the independent
// per-filter yields.
func (p *Printer) Stats(st filter.Stats, filters []*filter.Definition) {
	fmt.Fprintf(p.w, "%d/%d messages matched (%.1f%%)\n", st.Matched, st.Total, st.Percentage)
	for _, f := range filters {
		if !f.Enabled {
			continue
		}
		if n, ok := st.PerFilter[f.ID]; ok {
			fmt.Fprintf(p.w, "  %s %d\n", pad(f.Name+":", 22), n)
		}
	}
}

// Summary prints the per-severity rollup, most severe first.
func (p *Printer) Summary(sums []aggregate.SeveritySummary, sevs message.SeveritySet) {
	for _, s := range sums {
		name := s.Severity
		if l, ok := sevs.Lookup(s.Severity); ok {
			name = l.Name
		}
		p.styleFor(s.Severity).Fprintf(p.w, "%s %d\n", pad(name+":", 18), s.Total)
		for id, n := range s.ByID {
			fmt.Fprintf(p.w, "  %s %d\n", pad("["+id+"]", 24), n)
		}
	}
}

// Groups prints one line per bucket with its count and affected files.
func (p *Printer) Groups(groups []aggregate.Group) {
	for _, g := range groups {
		p.styleFor(g.Severity).Fprintf(p.w, "%s %d\n", pad(g.Key+":", 24), g.Count)
		if len(g.Files) > 0 {
			fmt.Fprintf(p.w, "  files: %s\n", strings.Join(g.Files, ", "))
		}
	}
}

// Verdict prints the CI outcome: failing count or pass, plus the waived
// and stale-waiver sections when requested.
func (p *Printer) Verdict(v waiver.Verdict, showWaived bool) {
	if v.Pass() {
		fmt.Fprintf(p.w, "PASS: no unwaived messages at or above the failure threshold\n")
	} else {
		fmt.Fprintf(p.w, "FAIL: %d unwaived message(s) at or above the failure threshold\n", len(v.Failing))
		for i := range v.Failing {
			m := &v.Failing[i]
			p.styleFor(m.Severity).Fprintf(p.w, "  line %d: %s\n", m.StartLine, firstLine(m.RawText))
		}
	}
	if showWaived && len(v.Waived) > 0 {
		fmt.Fprintf(p.w, "waived (%d):\n", len(v.Waived))
		for _, wd := range v.Waived {
			fmt.Fprintf(p.w, "  line %d: %s [%s by %s: %s]\n",
				wd.Message.StartLine, firstLine(wd.Message.RawText), wd.By.Type, wd.By.Author, wd.By.Reason)
		}
	}
}

// StaleWaivers reports acceptance entries that matched nothing this run,
// flagging the expired ones.
func (p *Printer) StaleWaivers(unused, expired []*waiver.Waiver) {
	if len(unused) == 0 {
		fmt.Fprintln(p.w, "all waivers were used")
		return
	}
	isExpired := make(map[*waiver.Waiver]bool, len(expired))
	for _, w := range expired {
		isExpired[w] = true
	}
	fmt.Fprintf(p.w, "unused waivers (%d), candidates for cleanup:\n", len(unused))
	for _, w := range unused {
		suffix := ""
		if isExpired[w] {
			suffix = " (expired " + w.Expires + ")"
		}
		fmt.Fprintf(p.w, "  %s %q by %s on %s%s\n", w.Type, w.Pattern, w.Author, w.Date, suffix)
	}
}

// Table prints aligned columns, padding by display width.
func (p *Printer) Table(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for _, row := range rows {
		parts := make([]string, len(row))
		for i, cell := range row {
			parts[i] = pad(cell, widths[i])
		}
		fmt.Fprintln(p.w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}
}

func pad(s string, width int) string {
	if d := width - runewidth.StringWidth(s); d > 0 {
		return s + strings.Repeat(" ", d)
	}
	return s
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
