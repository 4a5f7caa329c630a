package stringsfile

import "regexp"

// Anchor states how a Pattern is applied to a line.
type Anchor int

const (
	// AnchorLine requires the expression to match the whole line.
	AnchorLine Anchor = iota
	// AnchorNone accepts a match anywhere in the line.
	AnchorNone
)

// Pattern is a compiled expression together with its anchoring.
type Pattern struct {
	expr   string
	anchor Anchor
	re     *regexp.Regexp
}

// MustCompile compiles expr with the given anchoring and panics on a
// malformed expression.
func MustCompile(expr string, anchor Anchor) Pattern {
	src := expr
	if anchor == AnchorLine {
		src = `^(?:` + expr + `)$`
	}
	return Pattern{expr: expr, anchor: anchor, re: regexp.MustCompile(src)}
}

func (p Pattern) String() string { return p.expr }

// Match applies p to text. On success it returns the capture groups in
// order (without the whole match) and true.
func Match(p Pattern, text string) ([]string, bool) {
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	return m[1:], true
}

// Line patterns of the .strings format. They are applied to lines with the
// line ending and surrounding whitespace removed.
var (
	keyValuePattern     = MustCompile(`"(.+?)"\s*=\s*"(.*)";`, AnchorLine)
	commentStartPattern = MustCompile(`/\*.*`, AnchorLine)
	commentEndPattern   = MustCompile(`.*\*/`, AnchorLine)
)
