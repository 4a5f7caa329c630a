// Package merge reconciles translated .strings files with freshly
// generated ones.
//
// The generated (source) file owns the structure: which keys exist and the
// developer comments attached to them. The translated (target) file owns
// the values. Merging therefore:
//   - removes keys the source no longer has,
//   - adds keys the target is missing, with the source value as a placeholder,
//   - refreshes comments that changed in the source, keeping the translation.
//
// Translated values are never overwritten, so running a merge again is
// always safe.
package merge

import (
	"github.com/minios-linux/rendezvous/stringsfile"
	"github.com/minios-linux/rendezvous/tracker"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Merger applies source files onto target files and reports every
// decision to a Tracker.
type Merger struct {
	tracker *tracker.Tracker
	dryRun  bool
	log     zerolog.Logger
}

// Option configures a Merger.
type Option func(*Merger)

// WithDryRun records changes without writing target files.
func WithDryRun(dry bool) Option {
	return func(m *Merger) { m.dryRun = dry }
}

// WithLogger sets the logger used for per-file decisions.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Merger) { m.log = l }
}

// New returns a Merger reporting to t.
func New(t *tracker.Tracker, opts ...Option) *Merger {
	m := &Merger{tracker: t, log: log.Logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge brings target in line with source and saves target when anything
// changed. Both files must already be loaded. source is only read.
//
// The returned bool reports whether target needed changes. A non-nil
// error means the changes could not be saved; it is also recorded in the
// tracker for target's path, replacing the changes recorded for it.
func (m *Merger) Merge(source, target *stringsfile.File) (bool, error) {
	file := target.Path
	changed := false

	deleted := lo.Without(target.Keys(), source.Keys()...)
	for _, key := range deleted {
		old, _ := target.Lookup(key)
		target.RemoveKey(key)
		m.tracker.TrackChange(file, tracker.Change{Kind: tracker.Deleted, Key: key, OldValue: old.Value})
		changed = true
	}

	for _, key := range source.Keys() {
		src, _ := source.Lookup(key)

		existing, ok := target.Lookup(key)
		if !ok {
			target.Add(src)
			m.tracker.TrackChange(file, tracker.Change{Kind: tracker.Created, Key: key, NewValue: src.Value})
			changed = true
			continue
		}

		// Only comments are compared: the value belongs to the translator.
		if existing.SameComments(src) {
			continue
		}
		target.Add(stringsfile.Entry{Key: key, Value: existing.Value, Comments: src.Comments})
		m.tracker.TrackChange(file, tracker.Change{
			Kind:     tracker.Changed,
			Key:      key,
			OldValue: existing.CommentText(),
			NewValue: src.CommentText(),
		})
		changed = true
	}

	if !changed {
		m.log.Debug().Str("file", file).Msg("Up to date")
		return false, nil
	}

	m.log.Debug().
		Str("file", file).
		Int("deleted", len(deleted)).
		Int("changes", len(m.tracker.Changes(file))).
		Msg("Merged")

	if m.dryRun {
		return true, nil
	}
	if err := target.Save(); err != nil {
		m.tracker.TrackError(file, err)
		m.log.Error().Err(err).Str("file", file).Str("encoding", target.Encoding.String()).Msg("Save failed")
		return true, err
	}
	return true, nil
}
