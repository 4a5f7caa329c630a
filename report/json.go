package report

import (
	"encoding/json"
	"io"

	"github.com/minios-linux/rendezvous/tracker"
)

// JSON writes the report as an indented JSON document with the keys
// "files", "copied", "changes" and "errors".
type JSON struct {
	Grouping Grouping
}

type jsonReport struct {
	Files   []string    `json:"files"`
	Copied  []string    `json:"copied"`
	Changes []any       `json:"changes"`
	Errors  []jsonError `json:"errors"`
}

type jsonError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

type groupedFile struct {
	File    string              `json:"file"`
	Created []map[string]string `json:"created,omitempty"`
	Changed []map[string]string `json:"changed,omitempty"`
	Deleted []map[string]string `json:"deleted,omitempty"`
}

type flatFile struct {
	File    string              `json:"file"`
	Changes []map[string]string `json:"changes"`
}

// changeFields returns the per-kind fields of c: the key, plus newValue
// for created keys and both values for changed keys.
func changeFields(c tracker.Change, withType bool) map[string]string {
	m := map[string]string{"key": c.Key}
	switch c.Kind {
	case tracker.Created:
		m["newValue"] = c.NewValue
	case tracker.Changed:
		m["oldValue"] = c.OldValue
		m["newValue"] = c.NewValue
	case tracker.Deleted:
		if c.OldValue != "" {
			m["oldValue"] = c.OldValue
		}
	}
	if withType {
		m["type"] = c.Kind.String()
	}
	return m
}

func fieldList(changes []tracker.Change, withType bool) []map[string]string {
	out := make([]map[string]string, 0, len(changes))
	for _, c := range changes {
		out = append(out, changeFields(c, withType))
	}
	return out
}

// Render implements Renderer.
func (j *JSON) Render(w io.Writer, r tracker.Report) error {
	doc := jsonReport{
		Files:   r.ChangedFiles(),
		Copied:  r.Copied,
		Changes: []any{},
		Errors:  []jsonError{},
	}
	if doc.Files == nil {
		doc.Files = []string{}
	}
	if doc.Copied == nil {
		doc.Copied = []string{}
	}

	for _, file := range doc.Files {
		changes := r.Changes[file]
		if j.Grouping == NoGrouping {
			doc.Changes = append(doc.Changes, flatFile{File: file, Changes: fieldList(changes, true)})
			continue
		}
		s := sections(changes)
		g := groupedFile{File: file}
		if len(s[0]) > 0 {
			g.Created = fieldList(s[0], false)
		}
		if len(s[1]) > 0 {
			g.Changed = fieldList(s[1], false)
		}
		if len(s[2]) > 0 {
			g.Deleted = fieldList(s[2], false)
		}
		doc.Changes = append(doc.Changes, g)
	}

	for _, file := range r.ErrorFiles() {
		doc.Errors = append(doc.Errors, jsonError{File: file, Error: r.Errors[file].Error()})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}
