package csv2jsonl

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding identifies how input text is decoded before tokenizing.
type Encoding uint8

const (
	// EncodingRaw passes bytes through untouched.
	EncodingRaw Encoding = iota
	EncodingUTF8BOM
	EncodingUTF16LE
	EncodingUTF16BE
)

var (
	bomUTF8    = []byte{0xef, 0xbb, 0xbf}
	bomUTF16LE = []byte{0xff, 0xfe}
	bomUTF16BE = []byte{0xfe, 0xff}
)

func (e Encoding) String() string {
	switch e {
	case EncodingUTF8BOM:
		return "utf-8"
	case EncodingUTF16LE:
		return "utf-16le"
	case EncodingUTF16BE:
		return "utf-16be"
	default:
		return "raw"
	}
}

// DetectEncoding inspects the leading bytes of a stream for a byte order mark.
func DetectEncoding(prefix []byte) Encoding {
	switch {
	case bytes.HasPrefix(prefix, bomUTF8):
		return EncodingUTF8BOM
	case bytes.HasPrefix(prefix, bomUTF16LE):
		return EncodingUTF16LE
	case bytes.HasPrefix(prefix, bomUTF16BE):
		return EncodingUTF16BE
	default:
		return EncodingRaw
	}
}

// NewDecodingReader wraps r so that a BOM-marked stream is decoded to UTF-8
// with the mark removed. Invalid sequences decode to U+FFFD. Streams without a
// mark are returned unchanged, apart from read buffering.
func NewDecodingReader(r io.Reader) (io.Reader, Encoding, error) {
	br, ok := r.(*bufio.Reader)
	if !ok || br.Size() < len(bomUTF8) {
		br = bufio.NewReaderSize(r, defaultBufferSize)
	}
	prefix, err := br.Peek(len(bomUTF8))
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, EncodingRaw, err
	}

	enc := DetectEncoding(prefix)
	switch enc {
	case EncodingUTF8BOM:
		return transform.NewReader(br, unicode.UTF8BOM.NewDecoder()), enc, nil
	case EncodingUTF16LE:
		return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()), enc, nil
	case EncodingUTF16BE:
		return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()), enc, nil
	default:
		return br, enc, nil
	}
}
