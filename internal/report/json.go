package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kerf/internal/message"
	"kerf/internal/waiver"
)

// CIReport is the machine-readable verdict written by --report.
type CIReport struct {
	Tool        string         `json:"tool"`
	Log         string         `json:"log"`
	Interpreter string         `json:"interpreter"`
	GeneratedAt time.Time      `json:"generated_at"`
	Pass        bool           `json:"pass"`
	Strict      bool           `json:"strict"`
	Counts      map[string]int `json:"counts"` // severity id -> message count
	Failing     []Entry        `json:"failing"`
	Waived      []WaivedEntry  `json:"waived"`
	Unused      []WaiverEntry  `json:"unused_waivers"`
	Expired     []WaiverEntry  `json:"expired_waivers"`
}

type Entry struct {
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Severity  string `json:"severity,omitempty"`
	ID        string `json:"id,omitempty"`
	Category  string `json:"category,omitempty"`
	File      string `json:"file,omitempty"`
	Content   string `json:"content"`
}

type WaivedEntry struct {
	Entry
	Reason string `json:"reason"`
	Author string `json:"author"`
}

type WaiverEntry struct {
	Type    string `json:"type"`
	Pattern string `json:"pattern"`
	Reason  string `json:"reason"`
	Author  string `json:"author"`
	Date    string `json:"date"`
	Expires string `json:"expires,omitempty"`
}

// BuildCIReport assembles the report from one run's inputs and outcome.
func BuildCIReport(logPath, interpreterName, tool string, strict bool, msgs []message.Message, v waiver.Verdict, eng *waiver.Engine, now time.Time) CIReport {
	rep := CIReport{
		Tool:        tool,
		Log:         logPath,
		Interpreter: interpreterName,
		GeneratedAt: now,
		Pass:        v.Pass(),
		Strict:      strict,
		Counts:      make(map[string]int),
		Failing:     []Entry{},
		Waived:      []WaivedEntry{},
		Unused:      []WaiverEntry{},
		Expired:     []WaiverEntry{},
	}
	for i := range msgs {
		sev := msgs[i].Severity
		if sev == "" {
			sev = "other"
		}
		rep.Counts[sev]++
	}
	for i := range v.Failing {
		rep.Failing = append(rep.Failing, toEntry(&v.Failing[i]))
	}
	for _, wd := range v.Waived {
		rep.Waived = append(rep.Waived, WaivedEntry{
			Entry:  toEntry(&wd.Message),
			Reason: wd.By.Reason,
			Author: wd.By.Author,
		})
	}
	if eng != nil {
		for _, w := range eng.Unused() {
			rep.Unused = append(rep.Unused, toWaiverEntry(w))
		}
		for _, w := range eng.Expired() {
			rep.Expired = append(rep.Expired, toWaiverEntry(w))
		}
	}
	return rep
}

// WriteJSON writes the report to path, creating parent directories.
func WriteJSON(path string, rep CIReport) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func toEntry(m *message.Message) Entry {
	e := Entry{
		StartLine: m.StartLine,
		EndLine:   m.EndLine,
		Severity:  m.Severity,
		ID:        m.ID,
		Category:  m.Category,
		Content:   m.Content,
	}
	if m.FileRef != nil {
		e.File = m.FileRef.Path
	}
	return e
}

func toWaiverEntry(w *waiver.Waiver) WaiverEntry {
	return WaiverEntry{
		Type:    string(w.Type),
		Pattern: w.Pattern,
		Reason:  w.Reason,
		Author:  w.Author,
		Date:    w.Date,
		Expires: w.Expires,
	}
}
