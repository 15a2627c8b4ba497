package vivado

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

const sampleLog = `WARNING: [Vivado 12-3523] Component change
  detail line
ERROR: [Route 35-9] Routing failed
`

func TestParseSample(t *testing.T) {
	v := New()
	path := writeLog(t, "run.log", sampleLog)

	msgs, err := v.Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("parsed %d messages, want 2", len(msgs))
	}

	first := msgs[0]
	if first.StartLine != 1 || first.EndLine != 2 {
		t.Fatalf("first message spans %d-%d, want 1-2", first.StartLine, first.EndLine)
	}
	if first.Severity != "warning" {
		t.Fatalf("first severity = %q", first.Severity)
	}
	if first.ID != "Vivado 12-3523" {
		t.Fatalf("first id = %q", first.ID)
	}
	if first.RawText != "WARNING: [Vivado 12-3523] Component change\n  detail line" {
		t.Fatalf("first raw text = %q", first.RawText)
	}
	if first.Content != "Component change" {
		t.Fatalf("first content = %q", first.Content)
	}
	if first.Category != "vivado" {
		t.Fatalf("first category = %q", first.Category)
	}

	second := msgs[1]
	if second.StartLine != 3 || second.EndLine != 3 {
		t.Fatalf("second message spans %d-%d, want 3-3", second.StartLine, second.EndLine)
	}
	if second.Severity != "error" || second.ID != "Route 35-9" || second.Category != "route" {
		t.Fatalf("second message: %+v", second)
	}
}

func TestParseDropsNonMessages(t *testing.T) {
	v := New()
	path := writeLog(t, "run.log", "# banner\nProgress: 50%\nINFO: [Common 17-206] Exiting\n")

	msgs, err := v.Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Severity != "info" {
		t.Fatalf("got %+v, want just the INFO message", msgs)
	}
}

func TestParseCriticalWarningBeforeWarning(t *testing.T) {
	v := New()
	path := writeLog(t, "run.log", "CRITICAL WARNING: [Timing 38-282] path broken\n")

	msgs, err := v.Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Severity != "critical_warning" {
		t.Fatalf("severity = %q, want critical_warning", msgs[0].Severity)
	}
}

func TestParseBlankLineEndsMessage(t *testing.T) {
	v := New()
	path := writeLog(t, "run.log", "ERROR: [Synth 8-439] module not found\n\n  unrelated indent\n")

	msgs, err := v.Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(msgs) != 1 || msgs[0].EndLine != 1 {
		t.Fatalf("blank line did not end the message: %+v", msgs)
	}
}

func TestDetectHeader(t *testing.T) {
	v := New()
	path := writeLog(t, "run.log", "#-----\n# Vivado v2023.2 (64-bit)\n#-----\n")
	if conf := v.Detect(path); conf != 0.95 {
		t.Fatalf("header confidence = %v, want 0.95", conf)
	}
}

func TestDetectMessageIDs(t *testing.T) {
	v := New()
	content := "WARNING: [Synth 8-7080] a\nINFO: [Route 35-57] b\nINFO: [DRC 23-20] c\n"
	path := writeLog(t, "run.log", content)
	if conf := v.Detect(path); conf != 0.85 {
		t.Fatalf("message-id confidence = %v, want 0.85", conf)
	}
}

func TestDetectFilenameHint(t *testing.T) {
	v := New()
	path := writeLog(t, "vivado.log", "nothing recognizable\n")
	if conf := v.Detect(path); conf != 0.4 {
		t.Fatalf("filename confidence = %v, want 0.4", conf)
	}
}

func TestDetectUnrelated(t *testing.T) {
	v := New()
	path := writeLog(t, "build.log", "make: Entering directory\ngcc -O2 -c main.c\n")
	if conf := v.Detect(path); conf != 0.0 {
		t.Fatalf("unrelated file scored %v", conf)
	}
}

func TestDetectMissingFile(t *testing.T) {
	v := New()
	if conf := v.Detect(filepath.Join(t.TempDir(), "absent.log")); conf != 0.0 {
		t.Fatalf("missing file scored %v", conf)
	}
}

func TestFileReference(t *testing.T) {
	v := New()
	cases := []struct {
		content string
		path    string
		line    int
		ok      bool
	}{
		{"ERROR: [Synth 8-439] bad module [/rtl/top.v:53]", "/rtl/top.v", 53, true},
		{"WARNING: width mismatch /src/alu.sv:12 detected", "/src/alu.sv", 12, true},
		{"INFO: no reference here", "", 0, false},
	}
	for _, tc := range cases {
		ref, ok := v.FileReference(tc.content)
		if ok != tc.ok {
			t.Fatalf("%q: ok=%v, want %v", tc.content, ok, tc.ok)
		}
		if ok && (ref.Path != tc.path || ref.Line != tc.line) {
			t.Fatalf("%q: ref=%+v", tc.content, ref)
		}
	}
}

func TestDefaultFilters(t *testing.T) {
	v := New()
	defs := v.DefaultFilters()
	if len(defs) == 0 {
		t.Fatalf("no default filters")
	}
	enabled := 0
	for _, d := range defs {
		if d.Source != "plugin:vivado" {
			t.Fatalf("filter %s source = %q", d.ID, d.Source)
		}
		if d.Enabled {
			enabled++
		}
	}
	// Severity filters ship enabled, topical filters disabled.
	if enabled != 3 {
		t.Fatalf("%d filters enabled, want 3", enabled)
	}
}

func TestSeverityLevelsOrdering(t *testing.T) {
	v := New()
	sevs := v.SeverityLevels()
	cw, ok1 := sevs.Lookup("critical_warning")
	warn, ok2 := sevs.Lookup("warning")
	if !ok1 || !ok2 {
		t.Fatalf("severity lookup failed")
	}
	if cw.Level <= warn.Level {
		t.Fatalf("critical_warning (%d) must outrank warning (%d)", cw.Level, warn.Level)
	}
}
