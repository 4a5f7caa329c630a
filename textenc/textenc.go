// Package textenc identifies and converts the byte encodings used by
// .strings catalogs.
//
// Xcode writes .strings files as UTF-8 or UTF-16 (usually with a byte order
// mark), while hand-maintained catalogs are often plain ASCII. The detected
// FileEncoding is recorded once per file and used both to decode lines when
// reading and to encode the merged result when writing, so a file is always
// rewritten in the encoding it was found in.
package textenc

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// FileEncoding enumerates the on-disk encodings rendezvous understands.
type FileEncoding int

const (
	// Unknown means detection was inconclusive. Unknown files are read and
	// written as UTF-8.
	Unknown FileEncoding = iota
	ASCII
	UTF8
	UTF16
	UTF16BigEndian
	UTF16LittleEndian
	// Unicode is the Foundation name for BOM-prefixed UTF-16.
	Unicode
)

var names = map[FileEncoding]string{
	Unknown:           "Unknown",
	ASCII:             "ASCII",
	UTF8:              "UTF-8",
	UTF16:             "UTF-16",
	UTF16BigEndian:    "UTF-16 Big Endian",
	UTF16LittleEndian: "UTF-16 Little Endian",
	Unicode:           "Unicode",
}

func (e FileEncoding) String() string {
	if s, ok := names[e]; ok {
		return s
	}
	return fmt.Sprintf("FileEncoding(%d)", int(e))
}

// MarshalText implements encoding.TextMarshaler so reports can carry the
// human-readable name.
func (e FileEncoding) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// Parse maps a name produced by String back to a FileEncoding.
func Parse(name string) (FileEncoding, bool) {
	for enc, s := range names {
		if s == name {
			return enc, true
		}
	}
	return Unknown, false
}

// IsUTF16 reports whether e is one of the UTF-16 family.
func (e FileEncoding) IsUTF16() bool {
	switch e {
	case UTF16, UTF16BigEndian, UTF16LittleEndian, Unicode:
		return true
	}
	return false
}

// CodeUnit returns the size in bytes of one code unit: 2 for UTF-16,
// 1 otherwise. Delimiter matching must stay aligned to it.
func (e FileEncoding) CodeUnit() int {
	if e.IsUTF16() {
		return 2
	}
	return 1
}

var (
	// ErrInvalidBytes is returned when bytes are not valid in the declared encoding.
	ErrInvalidBytes = errors.New("invalid bytes for encoding")
	// ErrUnencodable is returned when text cannot be represented in the target encoding.
	ErrUnencodable = errors.New("text not representable in encoding")
)

// endianness resolves the byte order used for e. Generic UTF-16 and
// Unicode default to big-endian when no BOM says otherwise.
func (e FileEncoding) endianness() unicode.Endianness {
	if e == UTF16LittleEndian {
		return unicode.LittleEndian
	}
	return unicode.BigEndian
}

// Decode converts raw bytes (without a BOM) into a string.
func Decode(e FileEncoding, b []byte) (string, error) {
	switch {
	case e == ASCII:
		for i, c := range b {
			if c >= utf8.RuneSelf {
				return "", fmt.Errorf("%w: non-ASCII byte 0x%02x at %d", ErrInvalidBytes, c, i)
			}
		}
		return string(b), nil
	case e.IsUTF16():
		if len(b)%2 != 0 {
			return "", fmt.Errorf("%w: odd byte count %d for %s", ErrInvalidBytes, len(b), e)
		}
		out, err := unicode.UTF16(e.endianness(), unicode.IgnoreBOM).NewDecoder().Bytes(b)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidBytes, err)
		}
		return string(out), nil
	default:
		if !utf8.Valid(b) {
			return "", fmt.Errorf("%w: malformed UTF-8", ErrInvalidBytes)
		}
		return string(b), nil
	}
}

// Encode converts s into the bytes of a whole file in encoding e. UTF-16
// variants get a leading BOM; UTF-8, ASCII and Unknown do not.
func Encode(e FileEncoding, s string) ([]byte, error) {
	switch {
	case e == ASCII:
		for i, r := range s {
			if r >= utf8.RuneSelf {
				return nil, fmt.Errorf("%w: %q at offset %d is not ASCII", ErrUnencodable, r, i)
			}
		}
		return []byte(s), nil
	case e.IsUTF16():
		return transform(unicode.UTF16(e.endianness(), unicode.UseBOM), s)
	default:
		return []byte(s), nil
	}
}

// WithUTF8BOM prefixes data with the UTF-8 byte order mark.
func WithUTF8BOM(data []byte) []byte {
	return append(append(make([]byte, 0, len(bomUTF8)+len(data)), bomUTF8...), data...)
}

// EncodeFragment encodes s without any BOM. It is used for delimiters
// that must be matched in the middle of a file.
func EncodeFragment(e FileEncoding, s string) ([]byte, error) {
	if e.IsUTF16() {
		return transform(unicode.UTF16(e.endianness(), unicode.IgnoreBOM), s)
	}
	return Encode(e, s)
}

func transform(enc encoding.Encoding, s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("%w: malformed UTF-8 input", ErrUnencodable)
	}
	out, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnencodable, err)
	}
	return out, nil
}
