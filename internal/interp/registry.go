package interp

import (
	"fmt"
	"sort"
	"strings"
)

// Score pairs an interpreter name with the confidence it reported.
type Score struct {
	Name       string
	Confidence float64
}

// NotFoundError means no interpreter reached the detection threshold.
// Best, when set, names the highest-scoring sub-threshold candidate as a
// hint for --plugin.
type NotFoundError struct {
	Path string
	Best *Score
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("no interpreter found for %s", e.Path)
	if e.Best != nil {
		msg += fmt.Sprintf(" (closest: %s at %.2f, below threshold %.2f)", e.Best.Name, e.Best.Confidence, DetectThreshold)
	}
	return msg
}

// ConflictError means two or more interpreters both claimed the file.
// The selector never silently picks the highest score: a wrong pick
// mis-segments the whole file, so ambiguity goes back to the caller.
type ConflictError struct {
	Path       string
	Candidates []Score
}

func (e *ConflictError) Error() string {
	parts := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		parts[i] = fmt.Sprintf("%s (%.2f)", c.Name, c.Confidence)
	}
	return fmt.Sprintf("ambiguous interpreter for %s: %s; use --plugin to choose", e.Path, strings.Join(parts, ", "))
}

// Registry holds the interpreters known to one invocation. It is an
// explicit value passed by reference; there is no process-wide registry.
type Registry struct {
	order  []string
	byName map[string]Interpreter
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Interpreter)}
}

// Register adds an interpreter. Re-registering a name replaces the
// previous interpreter but keeps its original position.
func (r *Registry) Register(i Interpreter) {
	name := i.Name()
	if _, ok := r.byName[name]; !ok {
		r.order = append(r.order, name)
	}
	r.byName[name] = i
}

func (r *Registry) Get(name string) (Interpreter, bool) {
	i, ok := r.byName[name]
	return i, ok
}

// Names returns registered interpreter names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Select resolves exactly one interpreter for path.
//
// An explicit override name wins unconditionally, with no scoring. Auto
// detection calls Detect on every registered interpreter, keeps the
// candidates at or above DetectThreshold and demands exactly one of them;
// zero yields *NotFoundError, several yield *ConflictError. Apart from
// the Detect calls themselves this is a pure function of the scores.
func (r *Registry) Select(path, override string) (Interpreter, error) {
	if override != "" {
		i, ok := r.byName[override]
		if !ok {
			return nil, fmt.Errorf("interpreter %q is not registered (available: %s)", override, strings.Join(r.Names(), ", "))
		}
		return i, nil
	}

	var candidates []Score
	var best *Score
	for _, name := range r.order {
		conf := r.byName[name].Detect(path)
		if conf >= DetectThreshold {
			candidates = append(candidates, Score{Name: name, Confidence: conf})
		}
		if conf > 0 && (best == nil || conf > best.Confidence) {
			best = &Score{Name: name, Confidence: conf}
		}
	}

	switch len(candidates) {
	case 0:
		return nil, &NotFoundError{Path: path, Best: best}
	case 1:
		return r.byName[candidates[0].Name], nil
	default:
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].Confidence > candidates[b].Confidence
		})
		return nil, &ConflictError{Path: path, Candidates: candidates}
	}
}
