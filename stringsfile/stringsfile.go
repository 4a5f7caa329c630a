// Package stringsfile implements reading and writing of Apple .strings
// localization catalogs.
//
// Format: blocks separated by blank lines, each an optional comment (a
// single line, or a /* ... */ block spanning several lines) followed by a
// key/value line:
//
//	/* Title of the main window */
//	"main.title" = "Rendezvous";
//
// A File keeps its entries sorted by key at all times, so serializing the
// same set of entries always yields the same bytes regardless of the order
// in which they were loaded, merged or edited.
package stringsfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/minios-linux/rendezvous/linereader"
	"github.com/minios-linux/rendezvous/textenc"
	"github.com/spf13/afero"
)

var (
	// ErrEncode wraps failures to represent a file's text in its encoding.
	ErrEncode = errors.New("failed to encode file")
	// ErrWrite wraps failures to persist a file.
	ErrWrite = errors.New("failed to save file")
)

// ---------------------------------------------------------------------------
// File model
// ---------------------------------------------------------------------------

// File is an in-memory .strings catalog bound to a path on a filesystem.
type File struct {
	// Path is the location the file is loaded from and saved to.
	Path string
	// Name is the base name of Path, used to pair files across folders.
	Name string
	// Encoding is fixed at discovery time.
	Encoding textenc.FileEncoding

	fs     afero.Fs
	policy MalformedPolicy
	loaded bool
	// bom is set when a non-UTF-16 file started with a UTF-8 byte order
	// mark; Marshal writes it back.
	bom bool

	// entries is sorted by key.
	entries []Entry
	// index maps key → entry; it mirrors entries.
	index map[string]Entry
}

// Option configures a File.
type Option func(*File)

// WithMalformedPolicy sets how Load treats malformed blocks.
func WithMalformedPolicy(p MalformedPolicy) Option {
	return func(f *File) { f.policy = p }
}

// New returns an unloaded File for path on fs.
func New(fs afero.Fs, path string, enc textenc.FileEncoding, opts ...Option) *File {
	f := &File{
		Path:     path,
		Name:     filepath.Base(path),
		Encoding: enc,
		fs:       fs,
		index:    make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Parse builds a loaded File from in-memory content. The result is not
// bound to any filesystem path.
func Parse(data []byte, enc textenc.FileEncoding, opts ...Option) (*File, error) {
	f := New(nil, "", enc, opts...)
	r, err := linereader.New(bytes.NewReader(data), enc)
	if err != nil {
		return nil, err
	}
	if err := f.load(r); err != nil {
		return nil, err
	}
	f.bom = r.HasBOM() && !enc.IsUTF16()
	return f, nil
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads and parses the file. It runs at most once; later calls
// return nil without touching the disk.
func (f *File) Load() error {
	if f.loaded {
		return nil
	}
	if f.fs == nil {
		return fmt.Errorf("loading %q: no filesystem", f.Path)
	}
	r, err := linereader.Open(f.fs, f.Path, f.Encoding)
	if err != nil {
		return err
	}
	defer r.Close()
	if err := f.load(r); err != nil {
		return fmt.Errorf("parsing %s: %w", f.Path, err)
	}
	f.bom = r.HasBOM() && !f.Encoding.IsUTF16()
	return nil
}

// load parses every line of r. A reader that stopped on undecodable
// bytes fails the load: the entries after that point are unknown.
func (f *File) load(r *linereader.Reader) error {
	entries, err := ParseLines(r, f.policy)
	if err != nil {
		return err
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("decoding at byte %d: %w", r.Offset(), err)
	}
	for _, e := range entries {
		f.Add(e)
	}
	f.loaded = true
	return nil
}

// Loaded reports whether the file has been parsed.
func (f *File) Loaded() bool { return f.loaded }

// ---------------------------------------------------------------------------
// Mutation
// ---------------------------------------------------------------------------

// Add inserts e, replacing any entry with the same key. Entries stay sorted
// by key.
func (f *File) Add(e Entry) {
	e = e.clone()
	f.RemoveKey(e.Key)
	i, _ := slices.BinarySearchFunc(f.entries, e.Key, compareEntries)
	f.entries = slices.Insert(f.entries, i, e)
	f.index[e.Key] = e
}

// RemoveKey deletes the entry for key. It is a no-op for unknown keys.
func (f *File) RemoveKey(key string) {
	if _, ok := f.index[key]; !ok {
		return
	}
	if i, found := slices.BinarySearchFunc(f.entries, key, compareEntries); found {
		f.entries = slices.Delete(f.entries, i, i+1)
	}
	delete(f.index, key)
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// ContainsKey reports whether key has an entry.
func (f *File) ContainsKey(key string) bool {
	_, ok := f.index[key]
	return ok
}

// Lookup returns the entry for key.
func (f *File) Lookup(key string) (Entry, bool) {
	e, ok := f.index[key]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// Keys returns all keys in ascending order.
func (f *File) Keys() []string {
	keys := make([]string, len(f.entries))
	for i, e := range f.entries {
		keys[i] = e.Key
	}
	return keys
}

// KeySet returns all keys as a set.
func (f *File) KeySet() map[string]struct{} {
	set := make(map[string]struct{}, len(f.index))
	for k := range f.index {
		set[k] = struct{}{}
	}
	return set
}

// Entries returns a copy of the entries in key order.
func (f *File) Entries() []Entry {
	out := make([]Entry, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.clone()
	}
	return out
}

// Len returns the number of entries.
func (f *File) Len() int { return len(f.entries) }

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// String renders the file in .strings layout: for every entry its comment
// lines, the key/value line and a blank separator line.
func (f *File) String() string {
	var sb strings.Builder
	for _, e := range f.entries {
		for _, c := range e.Comments {
			sb.WriteString(c)
			sb.WriteByte('\n')
		}
		sb.WriteString(e.Line())
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// Marshal renders the file and encodes it in the file's encoding.
func (f *File) Marshal() ([]byte, error) {
	data, err := textenc.Encode(f.Encoding, f.String())
	if err != nil {
		return nil, fmt.Errorf("%w %s as %s: %w", ErrEncode, f.Path, f.Encoding, err)
	}
	if f.bom {
		data = textenc.WithUTF8BOM(data)
	}
	return data, nil
}

// Save marshals the file and replaces Path atomically: the bytes go to a
// temporary file in the same directory which is then renamed over Path.
func (f *File) Save() error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	if f.fs == nil {
		return fmt.Errorf("%w %q: no filesystem", ErrWrite, f.Path)
	}
	if err := writeAtomic(f.fs, f.Path, data); err != nil {
		return fmt.Errorf("%w %s: %w", ErrWrite, f.Path, err)
	}
	return nil
}

func writeAtomic(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	perm := os.FileMode(0644)
	if info, err := fs.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := afero.TempFile(fs, dir, ".rendezvous-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fs.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		fs.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpPath)
		return err
	}
	if err := fs.Chmod(tmpPath, perm); err != nil {
		fs.Remove(tmpPath)
		return fmt.Errorf("setting mode %v: %w", perm, err)
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		fs.Remove(tmpPath)
		return err
	}
	return nil
}
