package waiver

import (
	"testing"
	"time"

	"kerf/internal/message"
)

var testNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

func baseWaiver(t Type, pattern string) Waiver {
	return Waiver{
		Type:    t,
		Pattern: pattern,
		Reason:  "reviewed",
		Author:  "eng@example.com",
		Date:    "2026-01-10",
	}
}

func routeMessage() message.Message {
	return message.Message{
		StartLine: 3,
		EndLine:   3,
		RawText:   "ERROR: [Route 35-9] Routing failed",
		Content:   "Routing failed",
		Severity:  "error",
		ID:        "Route 35-9",
		FileRef:   &message.FileRef{Path: "/rtl/top.v", Line: 12},
	}
}

func TestParseValidFile(t *testing.T) {
	doc := `
[metadata]
tool = "vivado"

[[waiver]]
type = "id"
pattern = "Route 35-9"
reason = "known routing issue"
author = "eng@example.com"
date = "2026-01-10"
expires = "2026-06-01"

[[waiver]]
type = "pattern"
pattern = "Routing failed"
reason = "tracked"
author = "eng@example.com"
date = "2026-01-10"
`
	f, errs, err := Parse(doc, "waivers.toml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("unexpected entry errors: %v", errs)
	}
	if f.Tool != "vivado" || len(f.Waivers) != 2 {
		t.Fatalf("tool %q, %d waivers", f.Tool, len(f.Waivers))
	}
}

func TestParseScopesEntryErrors(t *testing.T) {
	doc := `
[[waiver]]
type = "id"
pattern = "Route 35-9"
author = "eng@example.com"
date = "2026-01-10"

[[waiver]]
type = "id"
pattern = "Synth 8-7080"
reason = "benign"
author = "eng@example.com"
date = "2026-01-10"
`
	f, errs, err := Parse(doc, "waivers.toml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// First entry is missing its reason and must be rejected alone.
	if len(errs) != 1 || errs[0].Index != 0 {
		t.Fatalf("entry errors: %v", errs)
	}
	if len(f.Waivers) != 1 || f.Waivers[0].Pattern != "Synth 8-7080" {
		t.Fatalf("valid entry did not survive: %+v", f.Waivers)
	}
}

func TestParseRejectsBadTOML(t *testing.T) {
	if _, _, err := Parse("[[waiver", "w.toml"); err == nil {
		t.Fatalf("bad TOML accepted")
	}
}

func TestParseValidation(t *testing.T) {
	cases := []struct {
		name  string
		entry string
	}{
		{"bad type", "type = \"glob\"\npattern = \"x\"\nreason = \"r\"\nauthor = \"a\"\ndate = \"d\""},
		{"empty pattern", "type = \"id\"\npattern = \"\"\nreason = \"r\"\nauthor = \"a\"\ndate = \"d\""},
		{"missing author", "type = \"id\"\npattern = \"x\"\nreason = \"r\"\ndate = \"d\""},
		{"missing date", "type = \"id\"\npattern = \"x\"\nreason = \"r\"\nauthor = \"a\""},
		{"bad regex", "type = \"pattern\"\npattern = \"[\"\nreason = \"r\"\nauthor = \"a\"\ndate = \"d\""},
		{"bad expires", "type = \"id\"\npattern = \"x\"\nreason = \"r\"\nauthor = \"a\"\ndate = \"d\"\nexpires = \"soon\""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, errs, err := Parse("[[waiver]]\n"+tc.entry+"\n", "w.toml")
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(errs) != 1 || len(f.Waivers) != 0 {
				t.Fatalf("want 1 validation error and 0 waivers, got %v / %d", errs, len(f.Waivers))
			}
		})
	}
}

func TestMatchPriorityHashBeatsID(t *testing.T) {
	msg := routeMessage()
	idW := baseWaiver(TypeID, "Route 35-9")
	hashW := baseWaiver(TypeHash, HashOf(msg.RawText))

	// id entry listed first; hash must still win on type priority.
	eng := NewEngine([]Waiver{idW, hashW}, testNow)
	w, ok := eng.Match(&msg)
	if !ok || w.Type != TypeHash {
		t.Fatalf("matched %+v, want the hash waiver", w)
	}
}

func TestMatchPriorityOrderAcrossTypes(t *testing.T) {
	msg := routeMessage()
	ws := []Waiver{
		baseWaiver(TypeFile, "/rtl/top.v"),
		baseWaiver(TypePattern, "Routing"),
		baseWaiver(TypeID, "Route 35-9"),
	}
	eng := NewEngine(ws, testNow)
	w, ok := eng.Match(&msg)
	if !ok || w.Type != TypeID {
		t.Fatalf("matched %v, want id before pattern before file", w)
	}
}

func TestMatchFirstEntryWinsWithinType(t *testing.T) {
	msg := routeMessage()
	first := baseWaiver(TypeID, "Route *")
	first.Reason = "first"
	second := baseWaiver(TypeID, "Route 35-9")
	second.Reason = "second"

	eng := NewEngine([]Waiver{first, second}, testNow)
	w, ok := eng.Match(&msg)
	if !ok || w.Reason != "first" {
		t.Fatalf("matched %+v, want the first entry in file order", w)
	}
}

func TestMatchIDGlob(t *testing.T) {
	msg := routeMessage()
	eng := NewEngine([]Waiver{baseWaiver(TypeID, "Route *")}, testNow)
	if _, ok := eng.Match(&msg); !ok {
		t.Fatalf("glob id waiver did not match")
	}
}

func TestMatchFileForms(t *testing.T) {
	cases := []struct {
		pattern string
		want    bool
	}{
		{"/rtl/top.v", true}, // exact
		{"top.v", true},      // suffix
		{"*.v", true},        // glob on basename
		{"/rtl/*.v", true},   // glob on full path
		{"other.v", false},
	}
	for _, tc := range cases {
		msg := routeMessage()
		eng := NewEngine([]Waiver{baseWaiver(TypeFile, tc.pattern)}, testNow)
		_, ok := eng.Match(&msg)
		if ok != tc.want {
			t.Fatalf("file pattern %q matched=%v, want %v", tc.pattern, ok, tc.want)
		}
	}
}

func TestMatchFileSeverityWhitelist(t *testing.T) {
	w := baseWaiver(TypeFile, "/rtl/top.v")
	w.Severities = []string{"warning"}

	msg := routeMessage() // severity error
	eng := NewEngine([]Waiver{w}, testNow)
	if _, ok := eng.Match(&msg); ok {
		t.Fatalf("severity whitelist did not restrict the waiver")
	}
}

func TestMatchNoFileRef(t *testing.T) {
	msg := routeMessage()
	msg.FileRef = nil
	eng := NewEngine([]Waiver{baseWaiver(TypeFile, "*.v")}, testNow)
	if _, ok := eng.Match(&msg); ok {
		t.Fatalf("file waiver matched a message without a file reference")
	}
}

func TestExpiredNeverMatchesButIsReported(t *testing.T) {
	w := baseWaiver(TypeID, "Route 35-9")
	w.Expires = "2026-01-01" // before testNow

	msg := routeMessage()
	eng := NewEngine([]Waiver{w}, testNow)
	if _, ok := eng.Match(&msg); ok {
		t.Fatalf("expired waiver suppressed a message")
	}
	if len(eng.Expired()) != 1 {
		t.Fatalf("expired entry missing from report")
	}
	if len(eng.Unused()) != 1 {
		t.Fatalf("expired entry should also count as unused")
	}
}

func TestFutureExpiryStillMatches(t *testing.T) {
	w := baseWaiver(TypeID, "Route 35-9")
	w.Expires = "2027-01-01"

	msg := routeMessage()
	eng := NewEngine([]Waiver{w}, testNow)
	if _, ok := eng.Match(&msg); !ok {
		t.Fatalf("future-dated waiver did not match")
	}
	if len(eng.Expired()) != 0 {
		t.Fatalf("future expiry reported as expired")
	}
}

func TestUnusedTracking(t *testing.T) {
	used := baseWaiver(TypeID, "Route 35-9")
	stale := baseWaiver(TypeID, "Synth 8-7080")

	msg := routeMessage()
	eng := NewEngine([]Waiver{used, stale}, testNow)
	if _, ok := eng.Match(&msg); !ok {
		t.Fatalf("expected match")
	}
	unused := eng.Unused()
	if len(unused) != 1 || unused[0].Pattern != "Synth 8-7080" {
		t.Fatalf("unused report: %+v", unused)
	}
}

func testSeverities() message.SeveritySet {
	return message.NewSeveritySet([]message.SeverityLevel{
		{ID: "critical_warning", Name: "Critical Warning", Level: 3},
		{ID: "error", Name: "Error", Level: 2},
		{ID: "warning", Name: "Warning", Level: 1},
		{ID: "info", Name: "Info", Level: 0},
	})
}

func TestVerdictThreshold(t *testing.T) {
	sevs := testSeverities()
	msgs := []message.Message{
		{RawText: "ERROR: boom", Severity: "error"},
		{RawText: "WARNING: hmm", Severity: "warning"},
		{RawText: "INFO: ok", Severity: "info"},
	}

	errLevel, _ := sevs.Lookup("error")
	v := Evaluate(msgs, nil, sevs, errLevel.Level)
	if len(v.Failing) != 1 || v.Pass() {
		t.Fatalf("default threshold: %d failing, pass=%v", len(v.Failing), v.Pass())
	}

	warnLevel, _ := sevs.Lookup("warning")
	v = Evaluate(msgs, nil, sevs, warnLevel.Level)
	if len(v.Failing) != 2 {
		t.Fatalf("strict threshold: %d failing, want 2", len(v.Failing))
	}
}

func TestVerdictWaivedExcluded(t *testing.T) {
	sevs := testSeverities()
	msg := routeMessage()
	eng := NewEngine([]Waiver{baseWaiver(TypeID, "Route 35-9")}, testNow)

	errLevel, _ := sevs.Lookup("error")
	v := Evaluate([]message.Message{msg}, eng, sevs, errLevel.Level)
	if !v.Pass() {
		t.Fatalf("waived message still failed the run")
	}
	if len(v.Waived) != 1 {
		t.Fatalf("waived list has %d entries", len(v.Waived))
	}
}

func TestVerdictExpiredWaiverStillFails(t *testing.T) {
	sevs := testSeverities()
	msg := routeMessage()
	w := baseWaiver(TypeID, "Route 35-9")
	w.Expires = "2026-01-01"
	eng := NewEngine([]Waiver{w}, testNow)

	errLevel, _ := sevs.Lookup("error")
	v := Evaluate([]message.Message{msg}, eng, sevs, errLevel.Level)
	if v.Pass() {
		t.Fatalf("expired waiver suppressed a failing message")
	}
}

func TestVerdictUnknownSeverityNeverFails(t *testing.T) {
	sevs := testSeverities()
	msgs := []message.Message{
		{RawText: "odd line"},
		{RawText: "STRANGE: what", Severity: "strange"},
	}
	v := Evaluate(msgs, nil, sevs, 0)
	if !v.Pass() {
		t.Fatalf("messages without known severities failed the run")
	}
}
