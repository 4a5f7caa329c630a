// Package linereader reads a text file one decoded line at a time without
// loading the whole file into memory.
//
// The reader keeps a read offset into the file. Each call to ReadLine seeks
// to that offset, reads small fixed-size chunks until the encoded delimiter
// shows up, decodes the consumed bytes and advances the offset past them.
// Lines are returned with their trailing delimiter; the last line of a file
// that does not end with a delimiter is returned as-is.
package linereader

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/minios-linux/rendezvous/textenc"
	"github.com/spf13/afero"
)

const (
	// DefaultDelimiter separates lines.
	DefaultDelimiter = "\n"
	// DefaultChunkSize is the number of bytes read per chunk. It only
	// affects how often the underlying file is read, not the result.
	DefaultChunkSize = 16
)

// Reader yields decoded lines from a seekable source. It is forward-only
// and not restartable.
type Reader struct {
	src       io.ReadSeeker
	closer    io.Closer
	enc       textenc.FileEncoding
	delimiter string
	delim     []byte
	chunkSize int

	offset int64
	length int64
	bom    bool
	done   bool
	err    error
}

// Option configures a Reader.
type Option func(*Reader)

// WithDelimiter overrides the line delimiter.
func WithDelimiter(d string) Option {
	return func(r *Reader) {
		if d != "" {
			r.delimiter = d
		}
	}
}

// WithChunkSize overrides the chunk size. Non-positive values are ignored.
func WithChunkSize(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

// Open opens path on fs and returns a Reader decoding it with enc. The
// caller must Close the reader.
func Open(fs afero.Fs, path string, enc textenc.FileEncoding, opts ...Option) (*Reader, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	r, err := New(f, enc, opts...)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	r.closer = f
	return r, nil
}

// New returns a Reader over src decoding it with enc. A byte order mark at
// the start of src is skipped and, for generic UTF-16, decides the byte
// order.
func New(src io.ReadSeeker, enc textenc.FileEncoding, opts ...Option) (*Reader, error) {
	r := &Reader{
		src:       src,
		enc:       enc,
		delimiter: DefaultDelimiter,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.chunkSize%enc.CodeUnit() != 0 {
		r.chunkSize += enc.CodeUnit() - r.chunkSize%enc.CodeUnit()
	}

	length, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seeking to end: %w", err)
	}
	r.length = length

	if err := r.skipBOM(); err != nil {
		return nil, err
	}

	delim, err := textenc.EncodeFragment(r.enc, r.delimiter)
	if err != nil {
		return nil, fmt.Errorf("encoding delimiter: %w", err)
	}
	r.delim = delim
	return r, nil
}

func (r *Reader) skipBOM() error {
	if _, err := r.src.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to start: %w", err)
	}
	head := make([]byte, 3)
	n, err := io.ReadFull(r.src, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("reading header: %w", err)
	}
	bomEnc, bomLen := textenc.SniffBOM(head[:n])
	if bomLen == 0 {
		return nil
	}

	switch {
	case bomEnc == textenc.UTF8 && !r.enc.IsUTF16():
		r.offset = int64(bomLen)
		r.bom = true
	case bomEnc != textenc.UTF8 && r.enc.IsUTF16():
		if r.enc == textenc.UTF16 || r.enc == textenc.Unicode {
			r.enc = bomEnc
		}
		if r.enc == bomEnc {
			r.offset = int64(bomLen)
			r.bom = true
		}
	}
	return nil
}

// Encoding returns the encoding lines are decoded with, after any byte
// order resolution from a BOM.
func (r *Reader) Encoding() textenc.FileEncoding { return r.enc }

// HasBOM reports whether a byte order mark was found and skipped.
func (r *Reader) HasBOM() bool { return r.bom }

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 { return r.offset }

// Err returns the error that stopped the reader early, if any. Reaching
// the end of the file is not an error.
func (r *Reader) Err() error { return r.err }

// ReadLine returns the next line including its delimiter. The second
// result is false once the file is exhausted or the bytes at the current
// position cannot be decoded.
func (r *Reader) ReadLine() (string, bool) {
	if r.done || r.offset >= r.length {
		return "", false
	}
	if _, err := r.src.Seek(r.offset, io.SeekStart); err != nil {
		r.stop(fmt.Errorf("seeking to %d: %w", r.offset, err))
		return "", false
	}

	unit := r.enc.CodeUnit()
	chunk := make([]byte, r.chunkSize)
	var acc []byte

	for r.offset+int64(len(acc)) < r.length {
		n, err := r.src.Read(chunk)
		if n > 0 {
			from := len(acc) - len(r.delim) + 1
			if from < 0 {
				from = 0
			}
			from -= from % unit
			acc = append(acc, chunk[:n]...)
			if i := indexAligned(acc, r.delim, from, unit); i >= 0 {
				acc = acc[:i+len(r.delim)]
				break
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			r.stop(fmt.Errorf("reading at %d: %w", r.offset, err))
			return "", false
		}
		if n == 0 {
			break
		}
	}
	if len(acc) == 0 {
		r.done = true
		return "", false
	}
	r.offset += int64(len(acc))

	line, err := textenc.Decode(r.enc, acc)
	if err != nil {
		r.stop(err)
		return "", false
	}
	return line, true
}

// Lines drains the reader into a slice.
func (r *Reader) Lines() []string {
	var out []string
	for {
		line, ok := r.ReadLine()
		if !ok {
			return out
		}
		out = append(out, line)
	}
}

// Close releases the underlying file when the reader owns one.
func (r *Reader) Close() error {
	r.done = true
	if r.closer == nil {
		return nil
	}
	c := r.closer
	r.closer = nil
	return c.Close()
}

func (r *Reader) stop(err error) {
	r.done = true
	r.err = err
}

// indexAligned finds the first occurrence of sep in b starting at from,
// considering only offsets that are multiples of unit.
func indexAligned(b, sep []byte, from, unit int) int {
	for i := from; i+len(sep) <= len(b); i += unit {
		if bytes.Equal(b[i:i+len(sep)], sep) {
			return i
		}
	}
	return -1
}
