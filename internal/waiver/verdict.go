package waiver

import (
	"kerf/internal/message"
)

// Waived pairs a message with the entry that accepted it.
type Waived struct {
	Message message.Message
	By      *Waiver
}

// Verdict is the pass/fail outcome of one run. The run fails iff at
// least one non-waived message sits at or above the failure threshold.
type Verdict struct {
	Threshold int // minimum severity level that fails the run
	// Failing holds the unwaived messages at or above Threshold.
	Failing []message.Message
	// Waived holds every waived message regardless of severity, for the
	// optional show-waived report.
	Waived []Waived
}

func (v *Verdict) Pass() bool { return len(v.Failing) == 0 }

// Evaluate classifies msgs against the acceptance list. eng may be nil
// when no waiver file was supplied. Severity comparison is numeric
// through the interpreter's severity set; messages with unknown or empty
// severities never fail the run.
func Evaluate(msgs []message.Message, eng *Engine, sevs message.SeveritySet, threshold int) Verdict {
	v := Verdict{Threshold: threshold}
	for i := range msgs {
		if eng != nil {
			if w, ok := eng.Match(&msgs[i]); ok {
				v.Waived = append(v.Waived, Waived{Message: msgs[i], By: w})
				continue
			}
		}
		if sevs.AtOrAbove(msgs[i].Severity, threshold) {
			v.Failing = append(v.Failing, msgs[i])
		}
	}
	return v
}
