// Package segment groups raw log lines into logical multi-line blocks.
//
// Interpreters supply boundary rules (start pattern, continuation pattern,
// line cap) and get back ordered blocks covering every input line exactly
// once. The pass is strictly forward and O(n) in the line count.
package segment

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Rule describes one message boundary: a line matching Start opens a
// block, following lines matching Continuation extend it, and MaxLines
// caps how many lines one block may absorb (0 = unlimited).
type Rule struct {
	Start        *regexp.Regexp
	Continuation *regexp.Regexp
	MaxLines     int
}

// NewRule compiles a boundary rule. An empty continuation pattern means
// the rule only ever produces single-line blocks.
func NewRule(start, continuation string, maxLines int) (Rule, error) {
	s, err := regexp.Compile(start)
	if err != nil {
		return Rule{}, fmt.Errorf("start pattern %q: %w", start, err)
	}
	var c *regexp.Regexp
	if continuation != "" {
		c, err = regexp.Compile(continuation)
		if err != nil {
			return Rule{}, fmt.Errorf("continuation pattern %q: %w", continuation, err)
		}
	}
	return Rule{Start: s, Continuation: c, MaxLines: maxLines}, nil
}

// Block is one logical unit of output covering a contiguous line span.
type Block struct {
	StartLine int // 1-indexed, inclusive
	EndLine   int
	Lines     []string
	Rule      int  // index of the rule that opened the block, -1 if none
	Truncated bool // block was closed early because it hit Rule.MaxLines
}

// Raw joins the block's lines exactly as they appeared in the source.
func (b *Block) Raw() string { return strings.Join(b.Lines, "\n") }

// Split reads r line by line and segments it into blocks.
//
// Rules are tried in order and the first matching start pattern wins; a
// start match always closes the open block, so start beats continuation.
// A line matching neither pattern becomes its own single-line block, as
// does every line when no rules are given. The line that would push a
// block past MaxLines closes it and is re-dispatched (start check first,
// otherwise single-line). Output order equals input order.
func Split(r io.Reader, rules []Rule) ([]Block, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var blocks []Block
	var open *Block
	lineNo := 0

	closeOpen := func() {
		if open != nil {
			open.EndLine = open.StartLine + len(open.Lines) - 1
			blocks = append(blocks, *open)
			open = nil
		}
	}

	for sc.Scan() {
		lineNo++
		line := sc.Text()

		if ri := matchStart(rules, line); ri >= 0 {
			closeOpen()
			open = &Block{StartLine: lineNo, Lines: []string{line}, Rule: ri}
			continue
		}

		if open != nil {
			rule := rules[open.Rule]
			if rule.Continuation != nil && rule.Continuation.MatchString(line) {
				if rule.MaxLines > 0 && len(open.Lines) >= rule.MaxLines {
					open.Truncated = true
					closeOpen()
					// The overflow line did not match any start pattern,
					// so it stands alone rather than reopening the rule.
					blocks = append(blocks, singleLine(lineNo, line))
					continue
				}
				open.Lines = append(open.Lines, line)
				continue
			}
			closeOpen()
		}

		blocks = append(blocks, singleLine(lineNo, line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	closeOpen()
	return blocks, nil
}

func matchStart(rules []Rule, line string) int {
	for i, r := range rules {
		if r.Start.MatchString(line) {
			return i
		}
	}
	return -1
}

func singleLine(lineNo int, line string) Block {
	return Block{StartLine: lineNo, EndLine: lineNo, Lines: []string{line}, Rule: -1}
}
