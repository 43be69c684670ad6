package encoding

import (
	"bufio"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffLen = 4096

// minConfidence is the chardet score below which a guess is ignored.
const minConfidence = 30

// known maps chardet charset names to decoders. Anything else falls back to
// Windows-1252, which is what legacy spreadsheet exports almost always are.
var known = map[string]encoding.Encoding{
	"UTF-8":        unicode.UTF8,
	"UTF-16LE":     unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"UTF-16BE":     unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	"ISO-8859-1":   charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"ISO-8859-9":   charmap.ISO8859_9,
	"ISO-8859-15":  charmap.ISO8859_15,
}

// NewUTF8Reader returns a reader that yields the input as UTF-8. A leading
// byte order mark wins over detection and is stripped.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffLen)

	sample, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	fallback := Detect(sample)

	return transform.NewReader(br, unicode.BOMOverride(fallback.NewDecoder())), nil
}

// Detect guesses the encoding of a sample that carries no byte order mark.
func Detect(sample []byte) encoding.Encoding {
	if utf8.Valid(trimPartialRune(sample)) {
		return unicode.UTF8
	}

	res, err := chardet.NewTextDetector().DetectBest(sample)
	if err == nil && res.Confidence >= minConfidence {
		if e, ok := known[res.Charset]; ok {
			return e
		}
	}

	return charmap.Windows1252
}

// trimPartialRune drops an incomplete trailing UTF-8 sequence left by a
// sample boundary.
func trimPartialRune(b []byte) []byte {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(b); i++ {
		c := b[len(b)-i]
		if c < utf8.RuneSelf {
			return b
		}

		if utf8.RuneStart(c) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}

			return b
		}
	}

	return b
}
