package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/minios-linux/rendezvous/i18n"
	"github.com/minios-linux/rendezvous/tracker"
)

// Text is the arrow-style console report:
//
//	--> created fr.lproj/Info.strings ...
//	--> updated de.lproj/Main.strings ...
//	  --> Deleted: C
//	  --> Created: B
//	--> error: es.lproj/Main.strings, <reason>
type Text struct {
	Grouping Grouping
	// Color forces ANSI colors on or off regardless of the terminal.
	Color bool
}

type palette struct {
	file, kind, key, err *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		file: color.New(color.FgGreen, color.Bold),
		kind: color.New(color.FgWhite, color.Bold),
		key:  color.New(color.FgGreen, color.Bold),
		err:  color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{p.file, p.kind, p.key, p.err} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Render implements Renderer.
func (t *Text) Render(w io.Writer, r tracker.Report) error {
	p := newPalette(t.Color)
	ew := &errWriter{w: w}

	for _, path := range r.Copied {
		ew.printf(i18n.T("--> created %s ...")+"\n", p.file.Sprint(path))
	}

	for _, file := range r.ChangedFiles() {
		changes := r.Changes[file]
		if len(changes) == 0 {
			continue
		}
		ew.printf(i18n.T("--> updated %s ...")+"\n", p.file.Sprint(file))
		if t.Grouping == NoGrouping {
			t.renderChanges(ew, p, changes)
			continue
		}
		headings := [3]string{i18n.T("created"), i18n.T("updated"), i18n.T("deleted")}
		for i, group := range sections(changes) {
			if len(group) == 0 {
				continue
			}
			ew.printf("  --> %s:\n", headings[i])
			t.renderChanges(ew, p, group)
		}
	}

	for _, file := range r.ErrorFiles() {
		ew.printf(i18n.T("--> error: %s, %v")+"\n", p.err.Sprint(file), r.Errors[file])
	}
	return ew.err
}

func (t *Text) renderChanges(ew *errWriter, p palette, changes []tracker.Change) {
	for _, c := range changes {
		ew.printf("  --> %s: %s\n", p.kind.Sprint(i18n.T(c.Kind.String())), p.key.Sprint(c.Key))
	}
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
