// Package report renders the outcome of a merge run for humans or tools.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minios-linux/rendezvous/tracker"
)

// Grouping selects how changes are laid out inside a file.
type Grouping int

const (
	// NoGrouping lists changes in the order they were made.
	NoGrouping Grouping = iota
	// ByKind lists created, changed and deleted keys in separate groups.
	ByKind
)

func (g Grouping) String() string {
	if g == ByKind {
		return "kind"
	}
	return "none"
}

// ParseGrouping converts a --group-by value.
func ParseGrouping(s string) (Grouping, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return NoGrouping, nil
	case "kind", "type":
		return ByKind, nil
	}
	return NoGrouping, fmt.Errorf("unknown grouping %q (expected none or kind)", s)
}

// ErrUnknownReporter is returned by New for an unsupported reporter name.
var ErrUnknownReporter = errors.New("unknown reporter")

// Renderer writes a report.
type Renderer interface {
	Render(w io.Writer, r tracker.Report) error
}

// Names lists the reporter names accepted by New.
var Names = []string{"pretty", "json"}

// New returns the renderer called name. An empty name selects "pretty".
// color only affects the pretty renderer.
func New(name string, g Grouping, color bool) (Renderer, error) {
	switch strings.ToLower(name) {
	case "", "pretty":
		return &Text{Grouping: g, Color: color}, nil
	case "json":
		return &JSON{Grouping: g}, nil
	}
	return nil, fmt.Errorf("%w %q (expected %s)", ErrUnknownReporter, name, strings.Join(Names, " or "))
}

// sections splits changes into the created, changed and deleted groups,
// in that order.
func sections(changes []tracker.Change) [3][]tracker.Change {
	return [3][]tracker.Change{
		tracker.FilterByKind(changes, tracker.Created),
		tracker.FilterByKind(changes, tracker.Changed),
		tracker.FilterByKind(changes, tracker.Deleted),
	}
}
