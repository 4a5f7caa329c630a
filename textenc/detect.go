package textenc

import (
	"bufio"
	"bytes"
	"io"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// sniffLimit bounds how much of a file is handed to the content sniffer.
const sniffLimit = 3072

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// charsetLookup maps charset labels reported by the sniffer to encodings.
// Anything not listed here is Unknown.
var charsetLookup = map[string]FileEncoding{
	"us-ascii": ASCII,
	"ascii":    ASCII,
	"utf-8":    UTF8,
	"utf-16":   UTF16,
	"utf-16be": UTF16BigEndian,
	"utf-16le": UTF16LittleEndian,
}

// SniffBOM inspects the first bytes of a file for a byte order mark and
// returns the encoding it announces together with the BOM length. A zero
// length means no BOM was found.
func SniffBOM(head []byte) (FileEncoding, int) {
	switch {
	case bytes.HasPrefix(head, bomUTF8):
		return UTF8, len(bomUTF8)
	case bytes.HasPrefix(head, bomUTF16BE):
		return UTF16BigEndian, len(bomUTF16BE)
	case bytes.HasPrefix(head, bomUTF16LE):
		return UTF16LittleEndian, len(bomUTF16LE)
	}
	return Unknown, 0
}

// Detect determines the encoding of the file at path. It never fails:
// unreadable files and inconclusive sniffing both yield Unknown.
func Detect(fs afero.Fs, path string) FileEncoding {
	f, err := fs.Open(path)
	if err != nil {
		return Unknown
	}
	defer f.Close()

	head := make([]byte, sniffLimit)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Unknown
	}
	head = head[:n]

	enc := classify(head)
	if enc != UTF8 || hasBOM(head) {
		return enc
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return enc
	}
	if sevenBit(bufio.NewReader(f)) {
		return ASCII
	}
	return UTF8
}

// DetectBytes runs the same detection on in-memory content.
func DetectBytes(data []byte) FileEncoding {
	head := data
	if len(head) > sniffLimit {
		head = head[:sniffLimit]
	}
	enc := classify(head)
	if enc == UTF8 && !hasBOM(head) && sevenBit(bytes.NewReader(data)) {
		return ASCII
	}
	return enc
}

func hasBOM(head []byte) bool {
	_, n := SniffBOM(head)
	return n > 0
}

// classify looks for a BOM first and otherwise asks mimetype for the
// charset of the content.
func classify(head []byte) FileEncoding {
	if enc, n := SniffBOM(head); n > 0 {
		return enc
	}
	if len(head) == 0 {
		return Unknown
	}
	if enc := sniffUTF16(head); enc != Unknown {
		return enc
	}
	return lookupCharset(mimetype.Detect(head).String())
}

// sniffUTF16 recognizes UTF-16 without a BOM by its NUL bytes: text that
// is mostly Latin has a zero high byte in most code units, so NULs sit on
// one parity only. Big-endian puts them at even offsets, little-endian at
// odd ones.
func sniffUTF16(head []byte) FileEncoding {
	if len(head) < 4 || len(head)%2 != 0 {
		return Unknown
	}
	var even, odd int
	for i, c := range head {
		if c != 0 {
			continue
		}
		if i%2 == 0 {
			even++
		} else {
			odd++
		}
	}
	units := len(head) / 2
	switch {
	case odd == 0 && even*2 >= units:
		return UTF16BigEndian
	case even == 0 && odd*2 >= units:
		return UTF16LittleEndian
	}
	return Unknown
}

// lookupCharset extracts the charset parameter from a MIME label such as
// "text/plain; charset=utf-16le" and maps it through charsetLookup.
func lookupCharset(label string) FileEncoding {
	_, params, err := mime.ParseMediaType(label)
	if err != nil {
		return Unknown
	}
	charset, ok := params["charset"]
	if !ok {
		return Unknown
	}
	if enc, ok := charsetLookup[strings.ToLower(charset)]; ok {
		return enc
	}
	return Unknown
}

func sevenBit(r io.ByteReader) bool {
	for {
		c, err := r.ReadByte()
		if err != nil {
			return true
		}
		if c >= 0x80 {
			return false
		}
	}
}
