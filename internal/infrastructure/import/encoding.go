package csvimport

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding names reported by DecodeToUTF8
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF16LE     = "utf-16le"
	EncodingUTF16BE     = "utf-16be"
	EncodingWindows1252 = "windows-1252"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DecodeToUTF8 converts a spreadsheet export to UTF-8 and strips any byte order mark.
// UTF-16 is recognized by its BOM or by the zero-byte pattern of ASCII text; bytes
// that are not valid UTF-8 are read as Windows-1252, which is what Excel writes on
// western locales.
func DecodeToUTF8(data []byte) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyFile
	}

	var (
		out  []byte
		name string
		err  error
	)
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		out, name = data[len(bomUTF8):], EncodingUTF8
	case bytes.HasPrefix(data, bomUTF16LE):
		out, err = decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), data)
		name = EncodingUTF16LE
	case bytes.HasPrefix(data, bomUTF16BE):
		out, err = decodeWith(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), data)
		name = EncodingUTF16BE
	default:
		if endian, ok := guessUTF16(data); ok {
			name = EncodingUTF16LE
			if endian == unicode.BigEndian {
				name = EncodingUTF16BE
			}
			out, err = decodeWith(unicode.UTF16(endian, unicode.IgnoreBOM), data)
		} else if utf8.Valid(data) {
			out, name = data, EncodingUTF8
		} else {
			out, err = decodeWith(charmap.Windows1252, data)
			name = EncodingWindows1252
		}
	}
	if err != nil {
		return nil, name, ErrInvalidEncoding
	}

	if !utf8.Valid(out) || bytes.IndexByte(out, 0) >= 0 {
		return nil, name, ErrInvalidEncoding
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, name, ErrEmptyFile
	}
	return out, name, nil
}

func decodeWith(enc encoding.Encoding, data []byte) ([]byte, error) {
	return enc.NewDecoder().Bytes(data)
}

// guessUTF16 looks for BOM-less UTF-16: mostly-ASCII text leaves every other byte zero
func guessUTF16(data []byte) (unicode.Endianness, bool) {
	n := len(data)
	if n > 512 {
		n = 512
	}
	n &^= 1
	if n < 4 {
		return unicode.BigEndian, false
	}
	var evenZero, oddZero int
	for i := 0; i < n; i += 2 {
		if data[i] == 0 {
			evenZero++
		}
		if data[i+1] == 0 {
			oddZero++
		}
	}
	pairs := n / 2
	switch {
	case oddZero*10 >= pairs*8 && evenZero == 0:
		return unicode.LittleEndian, true
	case evenZero*10 >= pairs*8 && oddZero == 0:
		return unicode.BigEndian, true
	}
	return unicode.BigEndian, false
}
