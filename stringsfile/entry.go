package stringsfile

import (
	"slices"
	"strings"
)

// Entry is one key/value pair of a .strings file together with the
// comment lines that precede it. Comment lines are stored without their
// line ending.
type Entry struct {
	Key      string
	Value    string
	Comments []string
}

// Equal reports whether e and o agree on key, value and comments.
func (e Entry) Equal(o Entry) bool {
	return e.Key == o.Key && e.Value == o.Value && e.SameComments(o)
}

// SameComments reports whether e and o carry identical comment lines.
func (e Entry) SameComments(o Entry) bool {
	return slices.Equal(e.Comments, o.Comments)
}

// Less orders entries by key only.
func (e Entry) Less(o Entry) bool {
	return e.Key < o.Key
}

// CommentText joins the comment lines with newlines.
func (e Entry) CommentText() string {
	return strings.Join(e.Comments, "\n")
}

// Line renders the key/value line without a line ending.
func (e Entry) Line() string {
	return `"` + e.Key + `" = "` + e.Value + `";`
}

func (e Entry) clone() Entry {
	e.Comments = slices.Clone(e.Comments)
	return e
}

func compareEntries(a Entry, key string) int {
	return strings.Compare(a.Key, key)
}
