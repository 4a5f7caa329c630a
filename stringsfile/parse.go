package stringsfile

import (
	"errors"
	"fmt"
	"strings"
)

// MalformedPolicy decides what the parser does with a block that does not
// end in a key/value line.
type MalformedPolicy int

const (
	// SkipMalformed drops the block and keeps scanning. Parsing never fails.
	SkipMalformed MalformedPolicy = iota
	// RejectMalformed stops at the first malformed block with a *ParseError.
	RejectMalformed
)

func (p MalformedPolicy) String() string {
	if p == RejectMalformed {
		return "reject"
	}
	return "skip"
}

// ErrMalformedEntry is wrapped by every *ParseError.
var ErrMalformedEntry = errors.New("malformed entry")

// ParseError locates a malformed block.
type ParseError struct {
	// Line is the 1-based line number where the block started.
	Line int
	// Text is the offending line, without its line ending.
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %s: %q", e.Line, ErrMalformedEntry, e.Reason, e.Text)
}

func (e *ParseError) Unwrap() error { return ErrMalformedEntry }

// LineSource yields lines one at a time. *linereader.Reader satisfies it.
type LineSource interface {
	ReadLine() (string, bool)
}

type parser struct {
	src    LineSource
	policy MalformedPolicy
	lineNo int
}

// ParseLines runs the .strings state machine over src and returns the
// entries in the order they appear. Under SkipMalformed the error is
// always nil.
func ParseLines(src LineSource, policy MalformedPolicy) ([]Entry, error) {
	p := &parser{src: src, policy: policy}
	return p.run()
}

func (p *parser) next() (string, bool) {
	line, ok := p.src.ReadLine()
	if ok {
		p.lineNo++
	}
	return line, ok
}

// nextNonBlank skips blank lines and returns the first non-blank one.
func (p *parser) nextNonBlank() (string, bool) {
	for {
		line, ok := p.next()
		if !ok {
			return "", false
		}
		if strings.TrimSpace(line) != "" {
			return line, true
		}
	}
}

func (p *parser) run() ([]Entry, error) {
	var entries []Entry
	for {
		line, ok := p.nextNonBlank()
		if !ok {
			return entries, nil
		}
		start := p.lineNo
		text := trimLine(line)

		if groups, ok := Match(keyValuePattern, text); ok {
			entries = append(entries, Entry{Key: groups[0], Value: groups[1]})
			continue
		}

		comments := []string{chomp(line)}
		if isCommentStart(text) && !isCommentEnd(text) {
			closed := false
			for !closed {
				line, ok = p.next()
				if !ok {
					break
				}
				comments = append(comments, chomp(line))
				closed = isCommentEnd(trimLine(line))
			}
			if !closed {
				if err := p.malformed(start, comments[0], "unterminated block comment"); err != nil {
					return entries, err
				}
				return entries, nil
			}
		}

		line, ok = p.nextNonBlank()
		if !ok {
			if err := p.malformed(start, comments[0], "comment without entry"); err != nil {
				return entries, err
			}
			return entries, nil
		}
		groups, ok := Match(keyValuePattern, trimLine(line))
		if !ok {
			if err := p.malformed(p.lineNo, chomp(line), "expected key/value line"); err != nil {
				return entries, err
			}
			continue
		}
		entries = append(entries, Entry{Key: groups[0], Value: groups[1], Comments: comments})
	}
}

func (p *parser) malformed(line int, text, reason string) error {
	if p.policy == SkipMalformed {
		return nil
	}
	return &ParseError{Line: line, Text: text, Reason: reason}
}

func isCommentStart(text string) bool {
	_, ok := Match(commentStartPattern, text)
	return ok
}

// isCommentEnd needs at least "/**/" worth of text so that a lone "/*/"
// does not count as a closed comment.
func isCommentEnd(text string) bool {
	_, ok := Match(commentEndPattern, text)
	return ok && (len(text) >= 4 || !strings.HasPrefix(text, "/*"))
}

// chomp removes the line ending.
func chomp(line string) string {
	return strings.TrimRight(line, "\r\n")
}

// trimLine prepares a line for pattern matching.
func trimLine(line string) string {
	return strings.TrimSpace(line)
}
