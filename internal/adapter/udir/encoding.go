package udir

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding names reported by DetectEncoding.
const (
	EncodingUTF16LE = "utf-16le"
	EncodingUTF16BE = "utf-16be"
	EncodingUTF8    = "utf-8"
	EncodingLatin1  = "latin-1"
)

var encodings = map[string]encoding.Encoding{
	EncodingUTF16LE: unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	EncodingUTF16BE: unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
	EncodingUTF8:    unicode.UTF8BOM,
	EncodingLatin1:  charmap.ISO8859_1,
}

// DetectEncoding guesses the text encoding of a UDIR export. UDIR's
// statistics portal writes UTF-16 with a BOM; older files are Latin-1.
func DetectEncoding(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return EncodingUTF16LE
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return EncodingUTF16BE
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return EncodingUTF8
	}
	if looksUTF16LE(data) {
		return EncodingUTF16LE
	}
	if utf8.Valid(data) {
		return EncodingUTF8
	}
	return EncodingLatin1
}

// looksUTF16LE reports whether most odd bytes of the sample are zero, which
// is the shape of BOM-less UTF-16LE text in the Latin range.
func looksUTF16LE(data []byte) bool {
	n := min(len(data), 512) &^ 1
	if n < 4 {
		return false
	}
	zeros := 0
	for i := 1; i < n; i += 2 {
		if data[i] == 0 {
			zeros++
		}
	}
	return zeros*10 >= (n/2)*9
}

// DecodeUTF8 converts data in the named encoding to UTF-8, dropping any BOM.
func DecodeUTF8(data []byte, name string) ([]byte, error) {
	enc, ok := encodings[name]
	if !ok {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	if name == EncodingUTF16LE && !bytes.HasPrefix(data, []byte{0xFF, 0xFE}) {
		enc = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return out, nil
}
