// Package tracker collects what a merge run did to every translation file:
// the key-level changes, the files that were created by copying, and the
// files that could not be processed.
//
// A file either has changes or an error in the final report, never both.
// Recording an error for a file drops whatever changes were pending for it.
package tracker

import (
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
)

// Kind classifies a Change.
type Kind int

const (
	Created Kind = iota
	Changed
	Deleted
)

func (k Kind) String() string {
	switch k {
	case Created:
		return "Created"
	case Changed:
		return "Changed"
	case Deleted:
		return "Deleted"
	}
	return "Unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Change is a single key-level modification of a translation file. An
// empty OldValue or NewValue means the value does not apply to the kind.
type Change struct {
	Kind     Kind
	Key      string
	OldValue string
	NewValue string
}

// Report is a point-in-time copy of the tracker state.
type Report struct {
	Changes map[string][]Change
	Errors  map[string]error
	Copied  []string
}

// ChangedFiles returns the paths with changes in sorted order.
func (r Report) ChangedFiles() []string {
	files := lo.Keys(r.Changes)
	sort.Strings(files)
	return files
}

// ErrorFiles returns the paths with errors in sorted order.
func (r Report) ErrorFiles() []string {
	files := lo.Keys(r.Errors)
	sort.Strings(files)
	return files
}

// Tracker records changes and errors per file. It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	changes map[string][]Change
	errors  map[string]error
	copied  []string
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{
		changes: make(map[string][]Change),
		errors:  make(map[string]error),
	}
}

// TrackChange appends c to file's change list. Changes for a file that
// already has an error are ignored.
func (t *Tracker) TrackChange(file string, c Change) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, failed := t.errors[file]; failed {
		return
	}
	t.changes[file] = append(t.changes[file], c)
}

// TrackError records err for file and discards its pending changes.
func (t *Tracker) TrackError(file string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.changes, file)
	t.errors[file] = err
}

// TrackCopy records that path was created by copying a source file.
func (t *Tracker) TrackCopy(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.copied = append(t.copied, path)
}

// Changes returns a copy of the changes recorded for file.
func (t *Tracker) Changes(file string) []Change {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Change(nil), t.changes[file]...)
}

// Error returns the error recorded for file, if any.
func (t *Tracker) Error(file string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errors[file]
}

// Copied returns the copied paths in sorted order.
func (t *Tracker) Copied() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := append([]string(nil), t.copied...)
	sort.Strings(out)
	return out
}

// Snapshot copies the current state into a Report.
func (t *Tracker) Snapshot() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := Report{
		Changes: make(map[string][]Change, len(t.changes)),
		Errors:  make(map[string]error, len(t.errors)),
		Copied:  append([]string(nil), t.copied...),
	}
	for file, list := range t.changes {
		r.Changes[file] = append([]Change(nil), list...)
	}
	for file, err := range t.errors {
		r.Errors[file] = err
	}
	sort.Strings(r.Copied)
	return r
}

// Err aggregates every recorded file error, ordered by path. It returns
// nil when no file failed.
func (t *Tracker) Err() error {
	r := t.Snapshot()
	var result *multierror.Error
	for _, file := range r.ErrorFiles() {
		result = multierror.Append(result, &FileError{Path: file, Err: r.Errors[file]})
	}
	return result.ErrorOrNil()
}

// FileError ties an error to the file it happened on.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return e.Path + ": " + e.Err.Error() }

func (e *FileError) Unwrap() error { return e.Err }

// FilterByKind returns the changes of the given kind, preserving order.
func FilterByKind(changes []Change, kind Kind) []Change {
	return lo.Filter(changes, func(c Change, _ int) bool { return c.Kind == kind })
}
